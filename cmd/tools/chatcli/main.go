package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apiclient "github.com/advisorly/finassist/internal/client"
	"github.com/advisorly/finassist/internal/config"
	"github.com/advisorly/finassist/internal/identity"
	"github.com/advisorly/finassist/internal/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	server := flag.String("server", cfg.Client.RecommendURL, "backend base URL")
	token := flag.String("token", os.Getenv("FINASSIST_TOKEN"), "bearer token, blank to chat unauthenticated")
	user := flag.String("user", "", "user id for the live-update channel")
	watch := flag.Bool("watch", false, "subscribe to live updates (requires -user)")
	flag.Parse()

	provider := identity.NewMemoryProvider()
	if *token != "" {
		provider.SetToken(*token)
	}

	gate := session.NewGate(provider, func() {
		fmt.Println("signed out: restart with -token after signing in")
	})
	gate.Start()
	defer gate.Stop()

	store := session.NewStore(apiclient.NewRecommendClient(*server, cfg.Client.RecommendTimeout), provider)
	store.StartConversation()

	ctx := context.Background()

	if *watch {
		if *user == "" {
			log.Fatal("-watch requires -user")
		}
		listener, err := apiclient.DialUpdates(ctx, *server, *user)
		if err != nil {
			log.Fatalf("failed to open update channel: %v", err)
		}
		defer listener.Close()
		log.Printf("watching live updates for user %s", *user)
		defer func() {
			if latest := listener.Latest(); latest != "" {
				fmt.Printf("latest update: %s\n", latest)
			}
		}()
	}

	fmt.Println("financial assistant — type a question, or /new /list /select N /delete N /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for prompt(store); scanner.Scan(); prompt(store) {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(store, line); quit {
				return
			}
			continue
		}

		done, ok := store.Send(ctx, line)
		if !ok {
			fmt.Println("message not sent: start a conversation and wait for any pending reply")
			continue
		}
		<-done

		conv, found := store.Active()
		if !found || len(conv.Messages) == 0 {
			continue
		}
		last := conv.Messages[len(conv.Messages)-1]
		fmt.Printf("\nbot> %s\n", last.Text)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin error: %v", err)
	}
}

func prompt(store *session.Store) {
	if id, ok := store.ActiveID(); ok {
		fmt.Printf("[%s]> ", shortID(id))
		return
	}
	fmt.Print("[no chat]> ")
}

// runCommand handles the slash commands; true means quit.
func runCommand(store *session.Store, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true
	case "/new":
		conv := store.StartConversation()
		fmt.Printf("started conversation %s\n", shortID(conv.ID))
	case "/list":
		convs := store.Conversations()
		if len(convs) == 0 {
			fmt.Println("no conversations")
			return false
		}
		activeID, _ := store.ActiveID()
		for i, conv := range convs {
			marker := " "
			if conv.ID == activeID {
				marker = "*"
			}
			fmt.Printf("%s %d. %s (%d messages) %s\n", marker, i+1, conv.Title(), len(conv.Messages), shortID(conv.ID))
		}
	case "/select":
		if id, ok := conversationAt(store, fields); ok {
			if store.Select(id) {
				fmt.Printf("switched to %s\n", shortID(id))
			}
		}
	case "/delete":
		if id, ok := conversationAt(store, fields); ok {
			store.Delete(id)
			fmt.Printf("deleted %s\n", shortID(id))
		}
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}

// conversationAt resolves a 1-based list index from a slash command to a
// conversation id.
func conversationAt(store *session.Store, fields []string) (string, bool) {
	if len(fields) < 2 {
		fmt.Println("usage: " + fields[0] + " N")
		return "", false
	}
	n, err := strconv.Atoi(fields[1])
	convs := store.Conversations()
	if err != nil || n < 1 || n > len(convs) {
		fmt.Printf("no conversation %s\n", fields[1])
		return "", false
	}
	return convs[n-1].ID, true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
