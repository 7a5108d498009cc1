package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/google/shlex"

	"github.com/opsdeck/opsdeck/internal/briefing"
	"github.com/opsdeck/opsdeck/internal/conversation"
	"github.com/opsdeck/opsdeck/internal/feed"
	"github.com/opsdeck/opsdeck/internal/logger"
)

type REPL struct {
	components *RuntimeComponents
	ctx        context.Context
	reader     *bufio.Reader
	styles     replStyles
}

func NewREPL(components *RuntimeComponents) *REPL {
	sessionID := fmt.Sprintf("cli-%d", time.Now().Unix())

	return &REPL{
		components: components,
		ctx:        logger.WithSessionID(components.Ctx, sessionID),
		reader:     bufio.NewReader(os.Stdin),
		styles:     newReplStyles(components.Config.Console.NoColor),
	}
}

func (r *REPL) Start() error {
	fmt.Println("OpsDeck Operations Console")
	fmt.Println("Type '/help' for commands, '/exit' to quit.")

	if !r.components.Auth.SignedIn() {
		fmt.Println("Not signed in. Run '/login' to start a session.")
	}

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			if err := r.readLine(); err != nil {
				if err == io.EOF {
					return nil
				}
				continue
			}
		}
	}
}

func (r *REPL) readLine() error {
	fmt.Print("> ")
	text, err := r.reader.ReadString('\n')
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return r.execute(text)
	}

	r.send(text)
	return nil
}

func (r *REPL) execute(input string) error {
	parts, parseErr := shlex.Split(input)
	if parseErr != nil {
		parts = strings.Fields(input)
	}
	if len(parts) == 0 {
		return nil
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "/exit", "/quit":
		return io.EOF
	case "/help":
		r.printHelp()
	case "/login":
		r.login()
	case "/logout":
		r.components.Auth.SignOut(r.ctx)
		fmt.Println("Signed out.")
	case "/briefing":
		r.printBriefing()
	case "/feeds":
		r.printFeeds(args)
	case "/ticket":
		r.printTicket(args)
	case "/report":
		fmt.Println(r.components.Reports.Render(r.ctx))
	case "/reset":
		r.components.Engine.Reset(r.ctx)
		fmt.Println("Conversation cleared.")
	default:
		fmt.Println(r.styles.errText.Render("Unknown command: " + cmd))
	}
	return nil
}

func (r *REPL) printHelp() {
	fmt.Println(`Commands:
  /briefing            show the operational briefing
  /feeds [category]    list feed events (my-tickets, critical, rfc, upcoming-rfc, service-health, updates, short-updates)
  /ticket <id> [--refresh]  show the recommendation for one ticket
  /report              show the daily report
  /reset               clear the conversation
  /login               sign in
  /logout              sign out
  /exit                quit

Anything else is sent to the assistant.`)
}

func (r *REPL) login() {
	identity, err := r.components.Auth.SignIn(r.ctx, r.components.Config.Auth.Scopes)
	if err != nil {
		fmt.Println(r.styles.errText.Render("Sign-in failed: " + err.Error()))
		return
	}
	fmt.Printf("Signed in as %s.\n", identity.DisplayName)
}

// send pushes plain input into the conversation engine and blocks until
// the in-flight request resolves, printing the agent reply.
func (r *REPL) send(text string) {
	updates := r.components.Engine.Subscribe()

	if err := r.components.Engine.Send(r.ctx, text); err != nil {
		if errors.Is(err, conversation.ErrRequestInFlight) {
			fmt.Println(r.styles.pending.Render("Still waiting on the previous request."))
		}
		return
	}

	fmt.Println(r.styles.pending.Render("..."))
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-updates:
			if r.components.Engine.State() != conversation.StateIdle {
				continue
			}
			log := r.components.Engine.Messages()
			if len(log) > 0 && log[len(log)-1].Role == conversation.RoleAgent {
				fmt.Println(r.styles.agent.Render(log[len(log)-1].Text))
			}
			return
		}
	}
}

func (r *REPL) printBriefing() {
	displayName := ""
	if identity := r.components.Auth.Identity(); identity != nil {
		displayName = identity.DisplayName
	}

	b := briefing.Compose(r.components.Aggregator.Snapshot(), displayName, time.Now())

	fmt.Println(r.styles.greeting.Render(b.Greeting))
	fmt.Println(r.styles.tagline.Render(b.Tagline))
	for _, line := range b.Lines {
		fmt.Println("  " + line)
	}
	if len(b.Notices) > 0 {
		fmt.Println(r.styles.header.Render("Recent updates"))
		for _, notice := range b.Notices {
			fmt.Println(r.styles.notice.Render("  " + notice))
		}
	}
}

func (r *REPL) printFeeds(args []string) {
	snap := r.components.Aggregator.Snapshot()
	now := time.Now()

	categories := feed.Categories
	if len(args) > 0 {
		categories = []feed.Category{feed.Category(args[0])}
	}

	for _, category := range categories {
		events := snap.Events(category)
		fmt.Println(r.styles.header.Render(string(category)))
		if len(events) == 0 {
			fmt.Println("  (none)")
			continue
		}
		fmt.Println(r.feedTable(events, now))
	}
}

func (r *REPL) feedTable(events []feed.Event, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header.Padding(0, 1)
			}
			if row >= 0 && row < len(events) && col == 3 {
				return r.styles.age(events[row].Age(now).Hint()).Padding(0, 1)
			}
			return r.styles.normal.Padding(0, 1)
		}).
		Headers("ID", "Title", "Status", "Age")

	for _, event := range events {
		t.Row(event.ID, truncate(event.Title, 48), string(event.Status), string(event.Age(now)))
	}
	return t.Render()
}

func (r *REPL) printTicket(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: /ticket <id> [--refresh]")
		return
	}

	ticketID := args[0]
	refresh := len(args) > 1 && args[1] == "--refresh"

	var text string
	if refresh {
		text = r.components.Advisor.Refresh(r.ctx, ticketID)
	} else {
		text = r.components.Advisor.Get(r.ctx, ticketID)
	}

	fmt.Println(r.styles.header.Render("Recommendation for " + ticketID))
	fmt.Println("  " + text)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
