package tracking

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"manhwatrack/internal/auth"
	"manhwatrack/internal/checker"
	"manhwatrack/internal/comick"
	"manhwatrack/internal/feed"
	"manhwatrack/internal/notify"
	"manhwatrack/pkg/models"
)

type Handler struct {
	Repo    *Repo
	Comick  *comick.Client
	Checker *checker.Checker
	Feed    *feed.Hub
}

func NewHandler(repo *Repo, client *comick.Client, chk *checker.Checker, hub *feed.Hub) *Handler {
	return &Handler{Repo: repo, Comick: client, Checker: chk, Feed: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/titles", h.list)
	rg.POST("/titles", h.add)
	rg.DELETE("/titles/:slug", h.remove)
	rg.POST("/check", h.checkNow)
}

type addReq struct {
	Title string `json:"title"`
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	query := strings.TrimSpace(req.Title)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	top, err := h.Comick.SearchTop(c.Request.Context(), query)
	if err != nil || top.Slug == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no results found for %q", query)})
		return
	}

	title := top.Title
	if title == "" {
		title = query
	}

	saved := models.SavedManhwa{
		UserID: claims.UserID,
		Title:  title,
		Cover:  top.CoverURL,
		Link:   h.Comick.ComicURL(top.Slug),
	}
	if err := h.Repo.Add(c.Request.Context(), saved, top.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if h.Feed != nil {
		go h.Feed.Broadcast(feed.UpdateEvent{
			Type:   "tracking.add",
			UserID: claims.UserID,
			Title:  title,
			Slug:   top.Slug,
			At:     time.Now().UTC(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"title": title,
		"slug":  top.Slug,
		"cover": top.CoverURL,
		"link":  saved.Link,
	})
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	saved, err := h.Repo.ListSaved(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	tracked, err := h.Repo.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    len(saved),
		"items":    saved,
		"tracking": tracked,
	})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug required"})
		return
	}

	ok, err := h.Repo.Remove(c.Request.Context(), claims.UserID, slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not tracked"})
		return
	}

	if h.Feed != nil {
		go h.Feed.Broadcast(feed.UpdateEvent{
			Type:   "tracking.remove",
			UserID: claims.UserID,
			Slug:   slug,
			At:     time.Now().UTC(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

// checkNow runs an on-demand pass over the caller's rows and returns the
// results synchronously. Raw errors never surface to the user.
func (h *Handler) checkNow(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	updates, err := h.Checker.RunForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check updates, see logs"})
		return
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "no new chapters since your last check",
			"count":   0,
			"updates": []notify.Entry{},
		})
		return
	}

	msg := notify.BuildMessage(updates)
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("found %d new chapter(s)", msg.Count),
		"count":   msg.Count,
		"updates": msg.Entries,
	})
}
