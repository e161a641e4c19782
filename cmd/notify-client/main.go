package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"manhwatrack/internal/notify"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7071", "UDP notify server address")
	user := flag.String("user", "", "user id to receive pushes for")
	pretty := flag.Bool("pretty", true, "pretty print JSON messages")
	flag.Parse()

	if *user == "" {
		log.Fatal("-user is required")
	}

	for {
		if err := run(*addr, *user, *pretty); err != nil {
			log.Printf("[notify-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr, user string, pretty bool) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	reg, err := json.Marshal(notify.RegisterMessage{
		Type:   notify.RegisterMessageType,
		UserID: user,
	})
	if err != nil {
		return err
	}
	if _, err := conn.Write(reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	log.Printf("[notify-client] registered %s with %s", user, addr)

	buffer := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buffer)
		if err != nil {
			return err
		}
		line := buffer[:n]

		if !pretty {
			fmt.Println(string(line))
			continue
		}

		var msg notify.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// not one of ours? print raw
			fmt.Println(string(line))
			continue
		}

		b, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Println(string(b))
	}
}
