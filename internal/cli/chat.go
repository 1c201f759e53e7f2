// Package cli provides the interactive query loop for WorkflowWise.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/models"
	"github.com/workflowwise/workflowwise/internal/pipeline"
)

const (
	prompt        = "\nEnter your query (or type 'exit' to quit): "
	emptyQueryMsg = "Please enter a query."
	apologyMsg    = "Sorry, I couldn't understand or process your query properly to find relevant documents."
	chatTopK      = 3
)

// Chat runs the interactive query loop. One session id covers the whole
// process; every turn shares it so context accumulates across queries.
type Chat struct {
	orchestrator *pipeline.Orchestrator
	sessionID    string
	logger       *zap.Logger
}

// NewChat creates a chat loop with a fresh session id.
func NewChat(orchestrator *pipeline.Orchestrator, logger *zap.Logger) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		orchestrator: orchestrator,
		sessionID:    uuid.New().String(),
		logger:       logger,
	}
}

// SessionID returns the session id used for every turn of this chat.
func (c *Chat) SessionID() string {
	return c.sessionID
}

// Run reads queries from in and writes results to out until EOF or the
// literal input "exit". Turn failures print an apology and the loop
// continues; only I/O errors terminate it.
func (c *Chat) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	c.logger.Info("starting chat", zap.String("session_id", c.sessionID))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line == "" {
			fmt.Fprintln(out, emptyQueryMsg)
			continue
		}

		resp, err := c.orchestrator.Run(ctx, models.SearchRequest{
			Query:     line,
			TopK:      chatTopK,
			SessionID: c.sessionID,
		})
		if err != nil {
			c.logger.Error("turn failed", zap.Error(err))
			if errors.Is(err, pipeline.ErrServiceUnavailable) {
				return err
			}
			fmt.Fprintln(out, apologyMsg)
			continue
		}
		WriteResults(out, resp)
	}
	c.logger.Info("chat terminated", zap.String("session_id", c.sessionID))
	return scanner.Err()
}

// WriteResults writes one turn's results to w in a numbered, human-readable
// list.
func WriteResults(w io.Writer, resp *models.SearchResponse) {
	if len(resp.Results) == 0 {
		msg := resp.Message
		if msg == "" {
			msg = pipeline.NoResultsMessage
		}
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, "\n--- Search Results ---")
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d. ID: %s, Title: %s (Score: %.4f)\n", i+1, r.ID, r.Title, r.Score)
		snippet := r.ContentSnippet
		if snippet == "" {
			snippet = r.FullContentPreview
		}
		if snippet != "" {
			fmt.Fprintf(w, "   Snippet: %s\n", snippet)
		}
	}
	fmt.Fprintln(w, "----------------------")
}
