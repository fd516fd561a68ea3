package relay

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"orthoview/internal/model"
)

// ExportStore is the persistence surface the relay needs: saving captured
// exports and replaying the most recent snapshot of a plan.
type ExportStore interface {
	SaveExport(ctx context.Context, planID string, data json.RawMessage, filename, description string) (int, error)
	LatestExport(ctx context.Context, planID string) (json.RawMessage, error)
}

// State describes where a viewer session is in its lifecycle.
type State int

const (
	StateLoading State = iota
	StatePlanReady
	StateIframeReady
	StateAssetsPushed
)

func (s State) String() string {
	switch s {
	case StatePlanReady:
		return "PLAN_READY"
	case StateIframeReady:
		return "IFRAME_READY"
	case StateAssetsPushed:
		return "ASSETS_PUSHED"
	default:
		return "LOADING"
	}
}

// Session is the host-side relay for one viewer connection. Asset URLs are
// pushed once both the plan data and the guest document are ready; the
// order in which the two conditions arrive does not matter, and repeated
// pushes are tolerated because the guest shim is idempotent to them.
type Session struct {
	planID   string
	send     func(Message) error
	store    ExportStore
	resolver *Resolver

	mu          sync.Mutex
	iframeReady bool
	pushed      bool
	caps        Capabilities

	logf func(format string, args ...any)
}

func NewSession(planID string, send func(Message) error, store ExportStore) *Session {
	return &Session{
		planID:   planID,
		send:     send,
		store:    store,
		resolver: NewResolver(),
		logf:     log.Printf,
	}
}

// SetAssetURLs marks the plan side ready. If the guest already announced
// itself, the URLs are pushed immediately; otherwise the push waits in the
// resolver queue.
func (s *Session) SetAssetURLs(u model.AssetURLs) {
	s.resolver.SetAssetURLs(u)
}

// Resolver exposes the session's substitution state, shared with the HTTP
// resolve endpoint in tests.
func (s *Session) Resolver() *Resolver {
	return s.resolver
}

// State derives the lifecycle position from the two readiness latches.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	planReady := s.resolver.Ready()
	switch {
	case s.pushed:
		return StateAssetsPushed
	case planReady:
		return StatePlanReady
	case s.iframeReady:
		return StateIframeReady
	default:
		return StateLoading
	}
}

// HandleMessage dispatches one inbound guest message.
func (s *Session) HandleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeViewerReady:
		s.handleViewerReady(msg)
	case TypeExportData:
		s.handleExport(ctx, msg)
	case TypeRequestImport:
		s.handleRequestImport(ctx)
	case TypeImportSuccess, TypeImportManual:
		s.logf("relay: plan %s import result %s: %s", s.planID, msg.Type, msg.Message)
	default:
		s.logf("relay: plan %s unknown message type %q", s.planID, msg.Type)
	}
}

func (s *Session) handleViewerReady(msg Message) {
	s.mu.Lock()
	s.iframeReady = true
	if msg.Capabilities != nil {
		s.caps = *msg.Capabilities
	}
	s.mu.Unlock()

	s.resolver.OnReady(func(u model.AssetURLs) {
		if err := s.send(NewAssetURLsMessage(u)); err != nil {
			s.logf("relay: plan %s asset push failed: %v", s.planID, err)
			return
		}
		s.mu.Lock()
		s.pushed = true
		s.mu.Unlock()
	})
}

func (s *Session) handleExport(ctx context.Context, msg Message) {
	payload, err := ExportPayloadFrom(msg)
	if err != nil {
		s.logf("relay: plan %s export rejected: %v", s.planID, err)
		s.sendOrLog(Message{Type: TypeExportError, PlanID: s.planID, Message: "export payload could not be parsed"})
		return
	}

	count, err := s.store.SaveExport(ctx, s.planID, payload, msg.Filename, msg.Description)
	if err != nil {
		// Guest-side capture succeeded; only persistence failed. The guest's
		// own UI alerts the user off this message.
		s.logf("relay: plan %s export save failed: %v", s.planID, err)
		s.sendOrLog(Message{Type: TypeExportError, PlanID: s.planID, Message: "export could not be saved"})
		return
	}

	s.sendOrLog(Message{Type: TypeExportSaved, PlanID: s.planID, Count: count})
}

func (s *Session) handleRequestImport(ctx context.Context) {
	data, err := s.store.LatestExport(ctx, s.planID)
	if err != nil {
		s.logf("relay: plan %s import replay failed: %v", s.planID, err)
		return
	}

	s.mu.Lock()
	caps := s.caps
	s.mu.Unlock()

	s.sendOrLog(Message{
		Type:       TypeImportData,
		PlanID:     s.planID,
		ExportData: data,
		Strategy:   ChooseImportStrategy(caps),
	})
}

func (s *Session) sendOrLog(msg Message) {
	if err := s.send(msg); err != nil {
		s.logf("relay: plan %s send %s failed: %v", s.planID, msg.Type, err)
	}
}
