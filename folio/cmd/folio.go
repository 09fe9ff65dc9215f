// Command folio is the terminal client for the folio backend.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"folio/folio/config"
	"folio/folio/services/chatstream"
	"folio/folio/types"
	"folio/folio/utils/color"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

func main() {
	cfg := config.LoadConfig()

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "chat":
		err = runChat(cfg, os.Stdin, os.Stdout)
	case "token":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		var tok string
		tok, err = mintToken(cfg, args[1], time.Now())
		if err == nil {
			fmt.Println(tok)
		}
	case "summarize":
		if len(args) != 4 {
			usage()
			os.Exit(1)
		}
		err = runSummarize(cfg, args[1], args[2], args[3], os.Stdout)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Error(err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("folio usage:")
	fmt.Println("  folio chat                                # chat with the assistant")
	fmt.Println("  folio token <subject>                     # mint a development token")
	fmt.Println("  folio summarize <articleId> <title> <file> # summarize an article")
}

// mintToken signs an HS256 token for subject with the configured secret.
func mintToken(cfg config.Config, subject string, now time.Time) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func runChat(cfg config.Config, in io.Reader, out io.Writer) error {
	client := chatstream.NewClient(cfg.ServerURL+"/chat", chatstream.StaticToken(cfg.AccessToken), nil)

	fmt.Fprintln(out, color.Info("Connected to "+cfg.ServerURL+". Ctrl-C stops a reply, 'exit' quits."))
	var history []types.ChatMessage
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, color.Prompt("you> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}
		history = append(history, types.ChatMessage{Role: types.RoleUser, Content: line})

		reply, err := streamReply(client, history, out)
		switch {
		case chatstream.IsUnauthorized(err):
			fmt.Fprintln(out, color.Error("Sign in first: set FOLIO_ACCESS_TOKEN (see 'folio token')."))
			return nil
		case chatstream.IsRateLimited(err), chatstream.IsPaymentRequired(err):
			fmt.Fprintln(out, color.Warning(err.Error()))
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(out, color.Warning("[stopped]"))
		case err != nil:
			fmt.Fprintln(out, color.Error(err.Error()))
		}
		if reply != "" {
			history = append(history, types.ChatMessage{Role: types.RoleAssistant, Content: reply})
		}
	}
}

// streamReply prints one assistant reply as it arrives. An interrupt cancels
// only this reply.
func streamReply(client *chatstream.Client, history []types.ChatMessage, out io.Writer) (string, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var reply strings.Builder
	err := client.StreamChat(ctx, history,
		func(delta string) {
			reply.WriteString(delta)
			fmt.Fprint(out, color.Assistant(delta))
		},
		func() { fmt.Fprintln(out) })
	return reply.String(), err
}

func runSummarize(cfg config.Config, articleID, title, path string, out io.Writer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	body, err := json.Marshal(types.SummaryRequest{ArticleID: articleID, Title: title, Content: string(content)})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SummaryTimeout+10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.ServerURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("summarize failed (%d): %s", resp.StatusCode, e.Error)
	}

	var s types.SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return err
	}
	if s.Cached {
		fmt.Fprintln(out, color.Info("(cached)"))
	}
	fmt.Fprintln(out, s.Summary)
	for _, b := range s.Bullets {
		fmt.Fprintln(out, color.Bullet("  • ")+b)
	}
	return nil
}
