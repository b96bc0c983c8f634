package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"seekchat/seekchat/controllers"
	"seekchat/seekchat/services/llm"
	"seekchat/seekchat/services/render"
	"seekchat/seekchat/utils/color"
	"seekchat/seekchat/utils/types"
)

const helpText = `Commands:
  /new      start a new conversation
  /think    toggle deep thinking
  /search   toggle web search
  /session  show the conversation being threaded
  /history  list saved turns of this conversation
  /help     show this help
  exit      quit`

type repl struct {
	chat     *controllers.ChatController
	renderer *render.MarkdownRenderer
	in       io.Reader
	out      io.Writer

	thinking bool
	search   bool
}

// newREPL builds the loop. A nil renderer prints raw markdown.
func newREPL(chat *controllers.ChatController, renderer *render.MarkdownRenderer, in io.Reader, out io.Writer) *repl {
	return &repl{chat: chat, renderer: renderer, in: in, out: out}
}

// greet opens the first conversation. Failing here is not fatal; the first
// prompt tries again.
func (r *repl) greet(ctx context.Context) {
	fmt.Fprintln(r.out, color.ColorInfo("seekchat: type a prompt, /help for commands, exit to quit."))
	if _, err := r.chat.NewConversation(ctx); err != nil {
		fmt.Fprintln(r.out, color.ColorWarning(describeError(err)))
	}
}

func (r *repl) run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, r.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) prompt() string {
	return fmt.Sprintf("%s %s %s ",
		color.ColorToggle("think", r.thinking),
		color.ColorToggle("search", r.search),
		color.ColorPrompt("seekchat>"))
}

// handle runs one input line and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case "exit", "quit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/think":
		r.thinking = !r.thinking
		fmt.Fprintln(r.out, color.ColorToggle("think", r.thinking))
	case "/search":
		r.search = !r.search
		fmt.Fprintln(r.out, color.ColorToggle("search", r.search))
	case "/new":
		r.newConversation(ctx)
	case "/session":
		r.printSession()
	case "/history":
		r.printHistory(ctx)
	default:
		if strings.HasPrefix(line, "/") {
			fmt.Fprintln(r.out, color.ColorWarning("unknown command "+line))
			return false
		}
		r.send(ctx, line)
	}
	return false
}

func (r *repl) newConversation(ctx context.Context) {
	state, err := r.chat.NewConversation(ctx)
	if err != nil {
		fmt.Fprintln(r.out, color.ColorError(describeError(err)))
		return
	}
	fmt.Fprintln(r.out, color.ColorInfo("Starting a new conversation ("+state.ChatSessionID+")"))
}

func (r *repl) printSession() {
	state := r.chat.Session()
	if state.ChatSessionID == "" {
		fmt.Fprintln(r.out, color.ColorWarning("no chat session"))
		return
	}
	parent := state.ParentMessageID
	if parent == "" {
		parent = "none"
	}
	fmt.Fprintf(r.out, "session %s, parent %s, %d turn(s)\n", state.ChatSessionID, parent, state.Turns)
}

func (r *repl) printHistory(ctx context.Context) {
	turns, err := r.chat.Turns(ctx, r.chat.Session().ChatSessionID)
	if errors.Is(err, controllers.ErrTranscriptsDisabled) {
		fmt.Fprintln(r.out, color.ColorWarning("history needs --transcript-dsn"))
		return
	}
	if err != nil {
		fmt.Fprintln(r.out, color.ColorError(err.Error()))
		return
	}
	for i, t := range turns {
		fmt.Fprintf(r.out, "%d. %s\n", i+1, t.Prompt)
	}
}

func (r *repl) send(ctx context.Context, prompt string) {
	resp, err := r.chat.Chat(ctx, types.ChatRequest{
		Prompt:          prompt,
		ThinkingEnabled: r.thinking,
		SearchEnabled:   r.search,
	})
	if err != nil {
		fmt.Fprintln(r.out, color.ColorError(describeError(err)))
		return
	}

	if resp.Thinking != "" {
		fmt.Fprintln(r.out, color.ColorThinking(strings.TrimSpace(resp.Thinking)))
	}
	fmt.Fprint(r.out, r.renderExchange(prompt, resp.Answer))
	if resp.Detached {
		fmt.Fprintln(r.out, color.ColorWarning("answer had no message id; the next prompt starts a new thread"))
	}
}

func (r *repl) renderExchange(prompt, answer string) string {
	if r.renderer == nil {
		return render.Exchange(prompt, answer)
	}
	out, err := r.renderer.RenderExchange(prompt, answer)
	if err != nil {
		return render.Exchange(prompt, answer)
	}
	return out
}

// describeError turns a failed turn into the line shown to the user.
func describeError(err error) string {
	if errors.Is(err, llm.ErrNoChatSession) {
		return fmt.Sprintf("No chat session: %v", err)
	}
	switch llm.ClassifyError(err) {
	case llm.KindHTTPStatus:
		return fmt.Sprintf("HTTP error occurred: %v", err)
	case llm.KindTimeout:
		return "Request timed out."
	default:
		return fmt.Sprintf("Other error occurred: %v", err)
	}
}
