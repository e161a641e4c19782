package checker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"manhwatrack/pkg/models"
)

type fakeStore struct {
	rows     []models.TrackedTitle
	failList bool
	raceSlug string // conditional updates on this slug report a lost race
}

func (s *fakeStore) find(userID, slug string) *models.TrackedTitle {
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].Slug == slug {
			return &s.rows[i]
		}
	}
	return nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]models.TrackedTitle, error) {
	if s.failList {
		return nil, errors.New("table unreadable")
	}
	out := make([]models.TrackedTitle, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *fakeStore) ListForUser(ctx context.Context, userID string) ([]models.TrackedTitle, error) {
	if s.failList {
		return nil, errors.New("table unreadable")
	}
	var out []models.TrackedTitle
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateProgress(ctx context.Context, userID, slug string, chapter float64, newSlug string) (bool, error) {
	row := s.find(userID, slug)
	if row == nil || chapter <= row.LatestNotified {
		return false, nil
	}
	row.LatestNotified = chapter
	row.Slug = newSlug
	return true, nil
}

func (s *fakeStore) UpdateProgressIfUnchanged(ctx context.Context, userID, slug string, chapter float64, newSlug string, expectedPrev float64) (bool, error) {
	if slug == s.raceSlug {
		return false, nil
	}
	row := s.find(userID, slug)
	if row == nil || row.LatestNotified != expectedPrev {
		return false, nil
	}
	row.LatestNotified = chapter
	row.Slug = newSlug
	return true, nil
}

type fakeLookup struct {
	latest  map[string]models.LatestChapter // keyed by slug
	fail    map[string]bool
	resolve map[string]string // stale slug -> fresh slug
}

func (l *fakeLookup) ResolveSlug(ctx context.Context, title, currentSlug string) (string, error) {
	if fresh, ok := l.resolve[currentSlug]; ok {
		return fresh, nil
	}
	if _, ok := l.latest[currentSlug]; ok {
		return currentSlug, nil
	}
	return "", fmt.Errorf("unresolvable %q", title)
}

func (l *fakeLookup) LatestChapter(ctx context.Context, title, slug string) (*models.LatestChapter, error) {
	if l.fail[slug] {
		return nil, fmt.Errorf("lookup failed for %q", slug)
	}
	c, ok := l.latest[slug]
	if !ok {
		return nil, fmt.Errorf("no chapters for %q", slug)
	}
	c.Title = title
	c.Slug = slug
	return &c, nil
}

func (l *fakeLookup) LatestChapterWithDetail(ctx context.Context, title, slug string) (*models.LatestChapter, error) {
	if fresh, ok := l.resolve[slug]; ok {
		slug = fresh
	}
	return l.LatestChapter(ctx, title, slug)
}

type fakeNotifier struct {
	sent    map[string][]models.LatestChapter
	failFor map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]models.LatestChapter), failFor: make(map[string]bool)}
}

func (n *fakeNotifier) Notify(userID string, updates []models.LatestChapter) error {
	if n.failFor[userID] {
		return errors.New("user unreachable")
	}
	n.sent[userID] = append(n.sent[userID], updates...)
	return nil
}

func newChecker(store *fakeStore, lookup *fakeLookup, n *fakeNotifier) *Checker {
	return &Checker{Store: store, Comick: lookup, Notifier: n, Pacing: 0}
}

func TestRunAllAdvancesAndNotifies(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 5},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{
		"solo-leveling": {Chapter: 6, ChapterTitle: "Arise", Link: "https://comick.dev/comic/solo-leveling/chapter/c6"},
	}}
	n := newFakeNotifier()

	if err := newChecker(store, lookup, n).RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	got := n.sent["u1"]
	if len(got) != 1 {
		t.Fatalf("expected 1 update for u1, got %d", len(got))
	}
	if got[0].Chapter != 6 || got[0].ChapterTitle != "Arise" || got[0].Title != "Solo Leveling" {
		t.Fatalf("unexpected update: %+v", got[0])
	}
	if store.rows[0].LatestNotified != 6 {
		t.Fatalf("progress not persisted: %v", store.rows[0].LatestNotified)
	}
}

func TestRunAllIdempotent(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 5},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{
		"solo-leveling": {Chapter: 6},
	}}
	n := newFakeNotifier()
	c := newChecker(store, lookup, n)

	if err := c.RunAll(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	n.sent = make(map[string][]models.LatestChapter)

	if err := c.RunAll(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatalf("second pass with no upstream change should notify nobody, got %v", n.sent)
	}
}

func TestRunAllStrictlyGreaterComparison(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "A", Slug: "a", LatestNotified: 11.5},
		{UserID: "u1", Title: "B", Slug: "b", LatestNotified: 11.5},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{
		"a": {Chapter: 12},   // 12 > 11.5: fires
		"b": {Chapter: 11.5}, // equal: silent
	}}
	n := newFakeNotifier()

	if err := newChecker(store, lookup, n).RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	got := n.sent["u1"]
	if len(got) != 1 || got[0].Title != "A" {
		t.Fatalf("expected only title A to fire, got %+v", got)
	}
}

func TestRunAllRowFailureDoesNotAbortPass(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "Broken", Slug: "broken", LatestNotified: 1},
		{UserID: "u1", Title: "Fine", Slug: "fine", LatestNotified: 1},
	}}
	lookup := &fakeLookup{
		latest: map[string]models.LatestChapter{"fine": {Chapter: 2}},
		fail:   map[string]bool{"broken": true},
	}
	n := newFakeNotifier()

	if err := newChecker(store, lookup, n).RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll should tolerate row failures: %v", err)
	}
	if store.rows[0].LatestNotified != 1 {
		t.Fatal("failed row must stay untouched")
	}
	if len(n.sent["u1"]) != 1 || n.sent["u1"][0].Title != "Fine" {
		t.Fatalf("healthy row should still notify, got %+v", n.sent["u1"])
	}
}

func TestRunAllTwoUsersDifferentProgress(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "behind", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 5},
		{UserID: "current", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 6},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{
		"solo-leveling": {Chapter: 6},
	}}
	n := newFakeNotifier()

	if err := newChecker(store, lookup, n).RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	if len(n.sent["behind"]) != 1 {
		t.Fatal("user behind the latest chapter should be notified")
	}
	if len(n.sent["current"]) != 0 {
		t.Fatal("user already at the latest chapter should stay silent")
	}
}

func TestRunAllLostRaceSuppressesNotification(t *testing.T) {
	store := &fakeStore{
		rows: []models.TrackedTitle{
			{UserID: "u1", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 5},
		},
		raceSlug: "solo-leveling",
	}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{
		"solo-leveling": {Chapter: 6},
	}}
	n := newFakeNotifier()

	if err := newChecker(store, lookup, n).RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatal("a lost conditional write must not produce a notification")
	}
}

func TestRunAllDeliveryFailureIsolated(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "A", Slug: "a", LatestNotified: 1},
		{UserID: "u2", Title: "A", Slug: "a", LatestNotified: 1},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{"a": {Chapter: 2}}}
	n := newFakeNotifier()
	n.failFor["u1"] = true

	if err := newChecker(store, lookup, n).RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(n.sent["u2"]) != 1 {
		t.Fatal("u2 delivery must survive u1 failure")
	}
}

func TestRunAllTableReadFailureAborts(t *testing.T) {
	store := &fakeStore{failList: true}
	n := newFakeNotifier()

	if err := newChecker(store, &fakeLookup{}, n).RunAll(context.Background()); err == nil {
		t.Fatal("unreadable tracking table must abort the pass")
	}
}

func TestRunForUserReturnsSynchronously(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 5},
		{UserID: "u2", Title: "Solo Leveling", Slug: "solo-leveling", LatestNotified: 0},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{
		"solo-leveling": {Chapter: 6},
	}}
	n := newFakeNotifier()

	updates, err := newChecker(store, lookup, n).RunForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RunForUser: %v", err)
	}
	if len(updates) != 1 || updates[0].Chapter != 6 {
		t.Fatalf("unexpected updates: %+v", updates)
	}
	if len(n.sent) != 0 {
		t.Fatal("on-demand pass must not push notifications")
	}
	// other users' rows untouched
	if store.rows[1].LatestNotified != 0 {
		t.Fatal("on-demand pass must only touch the invoking user's rows")
	}
}

func TestRunForUserHealsStaleSlug(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "Solo Leveling", Slug: "old-slug", LatestNotified: 5},
	}}
	lookup := &fakeLookup{
		latest:  map[string]models.LatestChapter{"new-slug": {Chapter: 6}},
		resolve: map[string]string{"old-slug": "new-slug"},
	}

	updates, err := newChecker(store, lookup, newFakeNotifier()).RunForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RunForUser: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if store.rows[0].Slug != "new-slug" {
		t.Fatalf("resolved slug not persisted, still %q", store.rows[0].Slug)
	}
}

func TestRunForUserUnresolvableRowSkipped(t *testing.T) {
	store := &fakeStore{rows: []models.TrackedTitle{
		{UserID: "u1", Title: "Gone", Slug: "gone", LatestNotified: 3},
	}}
	lookup := &fakeLookup{latest: map[string]models.LatestChapter{}}

	updates, err := newChecker(store, lookup, newFakeNotifier()).RunForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unresolvable row must not surface an error: %v", err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected no updates, got %+v", updates)
	}
	if store.rows[0].LatestNotified != 3 {
		t.Fatal("store must stay untouched for an unresolvable row")
	}
}
