package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bookshop-assistant/internal/confirm"
	"bookshop-assistant/internal/llm"
	"bookshop-assistant/internal/store"
	"bookshop-assistant/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Generator is the slice of llm.Client the agent needs.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// BookFinder resolves a customer's book title against the catalog. Nil
// result means no match.
type BookFinder interface {
	FindByTitle(ctx context.Context, title string) (*store.Book, error)
}

// Agent runs the conversation loop: classify intent, either answer as a
// shop assistant or collect order fields turn by turn, and emit a
// confirmation block once the order intent is complete. Conversation
// state is in-memory and keyed by the session user id; it is not
// persisted.
type Agent struct {
	LLM     Generator
	Books   BookFinder
	Tracer  trace.Tracer
	Metrics *telemetry.Metrics

	ModelCapable string
	ModelFast    string
	Temperature  float64
	MaxTokens    int

	mu            sync.Mutex
	conversations map[string]*conversation
}

type message struct {
	role    string
	content string
}

type conversation struct {
	history []message
	order   confirm.Record
}

const historyWindow = 10

func (c *conversation) transcript() string {
	msgs := c.history
	if len(msgs) > historyWindow*2 {
		msgs = msgs[len(msgs)-historyWindow*2:]
	}
	var sb strings.Builder
	for _, m := range msgs {
		role := "User"
		if m.role == "assistant" {
			role = "Assistant"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(m.content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (a *Agent) conversation(userID string) *conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conversations == nil {
		a.conversations = make(map[string]*conversation)
	}
	conv, ok := a.conversations[userID]
	if !ok {
		conv = &conversation{}
		a.conversations[userID] = conv
	}
	return conv
}

// Reset drops the conversation state for one user (chat-clear).
func (a *Agent) Reset(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conversations, userID)
}

// Respond handles one user message and returns the assistant reply,
// which may embed a confirmation block.
func (a *Agent) Respond(ctx context.Context, userID, text string) (string, error) {
	ctx, span := a.Tracer.Start(ctx, "agent respond")
	defer span.End()

	conv := a.conversation(userID)
	conv.history = append(conv.history, message{role: "user", content: text})

	intent, err := a.detectIntent(ctx, conv)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("intent detection failed: %w", err)
	}
	span.SetAttributes(attribute.String("chatbot.intent", intent))

	var reply string
	switch intent {
	case "order_book":
		reply, err = a.collectOrder(ctx, conv)
	default:
		reply, err = a.assist(ctx, conv)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	conv.history = append(conv.history, message{role: "assistant", content: reply})
	return reply, nil
}

func (a *Agent) detectIntent(ctx context.Context, conv *conversation) (string, error) {
	ctx, span := a.Tracer.Start(ctx, "agent_stage intent")
	defer span.End()

	resp, err := a.LLM.Generate(ctx, llm.GenerateRequest{
		Model:       a.ModelFast,
		System:      intentSystemPrompt,
		Prompt:      "Đoạn hội thoại:\n" + conv.transcript(),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		Stage:       "intent",
	})
	if err != nil {
		return "", err
	}
	return parseIntent(resp.Content), nil
}

func (a *Agent) assist(ctx context.Context, conv *conversation) (string, error) {
	ctx, span := a.Tracer.Start(ctx, "agent_stage assist")
	defer span.End()

	resp, err := a.LLM.Generate(ctx, llm.GenerateRequest{
		Model:       a.ModelCapable,
		System:      assistSystemPrompt,
		Prompt:      "Đoạn hội thoại:\n" + conv.transcript(),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		Stage:       "assist",
	})
	if err != nil {
		return "", fmt.Errorf("assistant reply failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// collectOrder runs one turn of the order flow: re-extract fields from
// the transcript, merge them into the pending order, resolve the book
// against the catalog, then either ask for the first missing field or
// emit the confirmation block.
func (a *Agent) collectOrder(ctx context.Context, conv *conversation) (string, error) {
	ctx, span := a.Tracer.Start(ctx, "agent_stage extract")
	defer span.End()

	resp, err := a.LLM.Generate(ctx, llm.GenerateRequest{
		Model:       a.ModelCapable,
		System:      extractSystemPrompt,
		Prompt:      "Đoạn hội thoại:\n" + conv.transcript(),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		Stage:       "extract",
	})
	if err != nil {
		return "", fmt.Errorf("order extraction failed: %w", err)
	}

	extracted, tier := confirm.ParseRecordTier(resp.Content)
	span.SetAttributes(attribute.String("chatbot.parse_tier", tier))
	if a.Metrics != nil {
		a.Metrics.ParseTier.Add(ctx, 1, telemetry.WithTier(tier))
	}
	conv.order = mergeRecords(conv.order, extracted)

	if conv.order.BookID == "" && conv.order.BookTitle != "" && a.Books != nil {
		book, err := a.Books.FindByTitle(ctx, conv.order.BookTitle)
		if err != nil {
			return "", fmt.Errorf("book lookup failed: %w", err)
		}
		if book == nil {
			span.SetAttributes(attribute.Bool("chatbot.book_found", false))
			return bookNotFoundReply, nil
		}
		conv.order.BookID = fmt.Sprintf("%d", book.BookID)
		conv.order.BookTitle = book.Title
		conv.order.Author = book.Author
		conv.order.Category = book.Category
		conv.order.Price = fmt.Sprintf("%g", book.Price)
	}

	if q := nextQuestion(conv.order); q != "" {
		return q, nil
	}

	span.SetAttributes(attribute.Bool("chatbot.order_complete", true))
	return confirmLeadIn + confirm.FormatBlock(conv.order), nil
}

// mergeRecords keeps existing values and fills gaps from the newer
// extraction; a fresh non-empty extraction updates the field.
func mergeRecords(old, fresh confirm.Record) confirm.Record {
	pick := func(oldV, freshV string) string {
		if freshV != "" {
			return freshV
		}
		return oldV
	}
	// The parser fills quantity with its "1" default, which must not
	// clobber a quantity the customer stated in an earlier turn.
	quantity := old.Quantity
	if fresh.Quantity != "" && fresh.Quantity != "1" || quantity == "" {
		quantity = fresh.Quantity
	}
	merged := confirm.Record{
		BookID:       old.BookID,
		BookTitle:    pick(old.BookTitle, fresh.BookTitle),
		Author:       old.Author,
		Category:     old.Category,
		Quantity:     quantity,
		CustomerName: pick(old.CustomerName, fresh.CustomerName),
		Phone:        pick(old.Phone, fresh.Phone),
		Address:      pick(old.Address, fresh.Address),
		Price:        old.Price,
	}
	// A different title means a different book: the catalog fields must
	// be resolved again.
	if fresh.BookTitle != "" && old.BookTitle != "" && fresh.BookTitle != old.BookTitle {
		merged.BookID = ""
		merged.Author = ""
		merged.Category = ""
		merged.Price = ""
	}
	return merged
}

func nextQuestion(rec confirm.Record) string {
	fields := map[string]string{
		"book_title":    rec.BookTitle,
		"customer_name": rec.CustomerName,
		"phone":         rec.Phone,
		"address":       rec.Address,
	}
	for _, f := range followUpQuestions {
		if fields[f.field] == "" {
			return f.question
		}
	}
	return ""
}
