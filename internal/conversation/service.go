// Package conversation runs the guest dialog: it binds a phone number to a
// property, routes each message through the sub-flows and the intent
// pipeline, and persists the evolving conversation memory.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/knowledge"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging/segment"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
	"github.com/mchlbschmdt/ai-concierge/internal/recommend"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

const (
	defaultPausedAfter = 2 * time.Hour
	defaultRecTimeout  = 20 * time.Second
)

// Recommender is the external recommendation backend.
type Recommender interface {
	GetRecommendations(ctx context.Context, req recommend.RecommendationRequest) (string, error)
}

// Processor handles one inbound guest message.
type Processor interface {
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
}

// MessageRequest is one inbound SMS.
type MessageRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	// MessageID is the carrier's id, used by callers for dedupe.
	MessageID string `json:"messageId,omitempty"`
}

// Response is the outcome of one turn.
type Response struct {
	PhoneNumber string        `json:"phoneNumber"`
	Message     string        `json:"message"`
	Segments    []string      `json:"segments"`
	Intent      intent.Intent `json:"intent"`
	Branch      Branch        `json:"branch"`
	State       State         `json:"state"`
	PropertyID  string        `json:"propertyId,omitempty"`
	// Degraded is set when a collaborator failed and a fallback answered.
	Degraded  bool      `json:"degraded,omitempty"`
	Resumed   bool      `json:"resumed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Branch names the routing decision that produced a reply.
type Branch string

const (
	BranchTravelMode      Branch = "travel_mode"
	BranchPropertyCode    Branch = "property_code"
	BranchAwaitingCode    Branch = "awaiting_property"
	BranchConfirmation    Branch = "confirmation"
	BranchPropertySwitch  Branch = "property_switch"
	BranchGuestName       Branch = "guest_name"
	BranchWifiFlow        Branch = "wifi_flow"
	BranchMenu            Branch = "menu"
	BranchAmenity         Branch = "amenity"
	BranchDining          Branch = "dining"
	BranchReset           Branch = "reset"
	BranchRecommendation  Branch = "recommendation"
	BranchRepetition      Branch = "repetition"
	BranchFollowUp        Branch = "follow_up"
	BranchStructured      Branch = "structured"
	BranchSafety          Branch = "safety"
	BranchTroubleshooting Branch = "troubleshooting"
	BranchMultiRequest    Branch = "multi_request"
	BranchSmallTalk       Branch = "small_talk"
	BranchGeneral         Branch = "general"
	BranchError           Branch = "error"
)

// Service is the dialog orchestrator.
type Service struct {
	store       Store
	properties  property.Directory
	recommender Recommender
	resolver    *knowledge.Resolver
	classifier  *intent.Classifier
	logger      *logging.Logger
	metrics     *metrics.ConciergeMetrics
	tracer      trace.Tracer
	locks       *phoneLocks

	now           func() time.Time
	pick          func(n int) int
	maxSegmentLen int
	defaultTZ     string
	pausedAfter   time.Duration
	recTimeout    time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPicker overrides how randomized replies are chosen. pick(n) must
// return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// WithMetrics records turn and fallback metrics.
func WithMetrics(m *metrics.ConciergeMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxSegmentLength sets the SMS segment budget.
func WithMaxSegmentLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSegmentLen = n
		}
	}
}

// WithDefaultTimezone is used when a property address has no recognizable state.
func WithDefaultTimezone(tz string) Option {
	return func(s *Service) {
		if _, err := time.LoadLocation(tz); err == nil && tz != "" {
			s.defaultTZ = tz
		}
	}
}

// WithPausedAfter sets the idle gap after which a turn counts as resumed.
func WithPausedAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pausedAfter = d
		}
	}
}

// WithRecommendationTimeout bounds each recommender call.
func WithRecommendationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recTimeout = d
		}
	}
}

// NewService wires the orchestrator. recommender may be nil, in which case
// recommendation requests go straight to the property-data fallbacks.
func NewService(store Store, properties property.Directory, recommender Recommender, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if properties == nil {
		panic("conversation: property directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:         store,
		properties:    properties,
		recommender:   recommender,
		resolver:      knowledge.NewResolver(0),
		classifier:    intent.NewClassifier(),
		logger:        logger,
		tracer:        otel.Tracer("ai-concierge.conversation"),
		locks:         newPhoneLocks(),
		now:           time.Now,
		pick:          rand.IntN,
		maxSegmentLen: segment.DefaultMaxLength,
		defaultTZ:     "America/New_York",
		pausedAfter:   defaultPausedAfter,
		recTimeout:    defaultRecTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// turn is the working state of one message. Every field that ends up in the
// conversation row is copied here first and written back once.
type turn struct {
	phone    string
	msg      string
	now      time.Time
	conv     *Conversation
	prop     *property.Property
	result   intent.Result
	ctx      memory.Context
	state    State
	propID   string
	timezone string
	lastRecs string

	reply    string
	branch   Branch
	intent   intent.Intent
	entities []string
	degraded bool
}

func (t *turn) respond(b Branch, in intent.Intent, reply string) {
	t.branch, t.intent, t.reply = b, in, reply
}

// ProcessMessage runs one guest turn. Collaborator failures are turned into
// an apology reply; the only error returned is ErrPhoneRequired.
func (s *Service) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	ctx, span := s.tracer.Start(ctx, "conversation.process_message")
	defer span.End()
	started := s.now()

	unlock := s.locks.lock(phone)
	defer unlock()

	conv, err := s.loadConversation(ctx, phone)
	if err != nil {
		return s.fail(span, phone, nil, started, err), nil
	}

	t := &turn{
		phone:    phone,
		msg:      strings.TrimSpace(req.Message),
		now:      s.now(),
		conv:     conv,
		ctx:      conv.Context,
		state:    conv.State,
		propID:   conv.PropertyID,
		timezone: conv.Timezone,
		lastRecs: conv.LastRecommendations,
	}
	if !t.state.Valid() {
		t.state = StateAwaitingPropertyID
	}
	resumed := conv.Paused(t.now, s.pausedAfter)
	if resumed {
		s.logger.Info("conversation resumed after pause",
			"phone", logging.MaskPhone(phone),
			"idle", t.now.Sub(conv.LastInteractionAt).Round(time.Minute).String(),
		)
	}

	if err := s.loadProperty(ctx, t); err != nil {
		return s.fail(span, phone, nil, started, err), nil
	}
	if err := s.route(ctx, t); err != nil {
		return s.fail(span, phone, t.prop, started, err), nil
	}

	if t.intent == "" {
		t.intent = intent.General
	}
	t.ctx = memory.RecordTurn(t.ctx, memory.Turn{
		Intent:       t.intent,
		ResponseType: string(t.branch),
		Entities:     t.entities,
		At:           t.now,
	})
	if _, err := s.store.UpdateConversation(ctx, phone, t.update()); err != nil {
		return s.fail(span, phone, t.prop, started, fmt.Errorf("conversation: save: %w", err)), nil
	}

	resp := &Response{
		PhoneNumber: phone,
		Message:     t.reply,
		Segments:    segment.Split(t.reply, s.maxSegmentLen),
		Intent:      t.intent,
		Branch:      t.branch,
		State:       t.state,
		PropertyID:  t.propID,
		Degraded:    t.degraded,
		Resumed:     resumed,
		Timestamp:   t.now,
	}
	span.SetAttributes(
		attribute.String("concierge.intent", string(t.intent)),
		attribute.String("concierge.branch", string(t.branch)),
		attribute.String("concierge.state", string(t.state)),
		attribute.Int("concierge.segments", len(resp.Segments)),
	)
	s.metrics.ObserveTurn(string(t.branch), string(t.intent), s.now().Sub(started))
	s.logger.Info("conversation turn handled",
		"phone", logging.MaskPhone(phone),
		"intent", t.intent,
		"confidence", t.result.Confidence,
		"branch", t.branch,
		"state", t.state,
		"depth", t.ctx.ConversationDepth,
		"degraded", t.degraded,
	)
	return resp, nil
}

func (t *turn) update() Update {
	ctx := t.ctx
	last := t.intent
	state := t.state
	propID := t.propID
	tz := t.timezone
	recs := t.lastRecs
	at := t.now
	return Update{
		State:               &state,
		PropertyID:          &propID,
		Context:             &ctx,
		LastRecommendations: &recs,
		LastMessageType:     &last,
		Timezone:            &tz,
		LastInteractionAt:   &at,
	}
}

func (s *Service) loadConversation(ctx context.Context, phone string) (*Conversation, error) {
	conv, err := s.store.GetConversation(ctx, phone)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("conversation: load: %w", err)
	}
	conv, err = s.store.CreateConversation(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("conversation: create: %w", err)
	}
	s.logger.Info("conversation created", "phone", logging.MaskPhone(phone))
	return conv, nil
}

// loadProperty resolves the bound property. A binding to a property that no
// longer exists sends the guest back to code entry.
func (s *Service) loadProperty(ctx context.Context, t *turn) error {
	if t.propID == "" {
		if t.state == StateConfirmed {
			t.state = StateAwaitingPropertyID
		}
		return nil
	}
	p, err := s.properties.GetByID(ctx, t.propID)
	switch {
	case err == nil:
		t.prop = p
		return nil
	case errors.Is(err, property.ErrNotFound):
		s.logger.Warn("bound property missing, asking for code again",
			"phone", logging.MaskPhone(t.phone), "property_id", t.propID)
		t.state, t.propID = StateAwaitingPropertyID, ""
		return nil
	default:
		return fmt.Errorf("conversation: load property: %w", err)
	}
}

// fail builds the apology response. Nothing is persisted for the turn.
func (s *Service) fail(span trace.Span, phone string, p *property.Property, started time.Time, err error) *Response {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("conversation turn failed", "phone", logging.MaskPhone(phone), "error", err)
	s.metrics.ObserveTurn(string(BranchError), "", s.now().Sub(started))
	msg := apology(p)
	resp := &Response{
		PhoneNumber: phone,
		Message:     msg,
		Segments:    segment.Split(msg, s.maxSegmentLen),
		Branch:      BranchError,
		Degraded:    true,
		Timestamp:   s.now(),
	}
	if p != nil {
		resp.PropertyID = p.ID
	}
	return resp
}

func (s *Service) route(ctx context.Context, t *turn) error {
	if intent.IsTravelCode(t.msg) {
		s.handleTravelCode(t)
		return nil
	}
	switch t.state {
	case StateAwaitingPropertyID:
		return s.handleAwaitingProperty(ctx, t)
	case StateAwaitingConfirmation:
		return s.handleAwaitingConfirmation(ctx, t)
	default:
		return s.handleConfirmed(ctx, t)
	}
}

func (s *Service) choose(options []string) string {
	if len(options) == 0 {
		return ""
	}
	i := s.pick(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}
