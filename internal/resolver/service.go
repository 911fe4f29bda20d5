package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/access"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/events"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/metadata"
	"github.com/dynaqr/backend/internal/metrics"
	"github.com/dynaqr/backend/internal/statecodec"
	"github.com/dynaqr/backend/internal/txbuilder"
	"github.com/dynaqr/backend/internal/wallet"
	"go.uber.org/zap"
)

// incrementTimeout bounds the background scan-count submission. It is
// detached from the request context: the redirect has already been served.
const incrementTimeout = 30 * time.Second

// Resolution is what a successful scan resolves to.
type Resolution struct {
	RedirectURL string     `json:"redirect_url"`
	EventID     string     `json:"event_id"`
	EventName   string     `json:"event_name"`
	AccessType  string     `json:"access_type"`
	ScanCount   uint64     `json:"scan_count"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

// Service is the hot path behind every QR scan: decode the event, run the
// access policy, kick off the scan-count increment, and hand back the
// redirect. The increment is fire-and-forget; a scanner never waits on a
// ledger round.
type Service struct {
	reader    ledger.Reader
	builder   *txbuilder.Builder
	engine    *access.Engine
	store     metadata.Store
	operator  *wallet.Session
	publisher events.Publisher
	log       *zap.Logger

	wg sync.WaitGroup
}

// New builds the resolver. store supplies cached off-chain attributes for
// the response (last-scanned stamp); operator is the service wallet that
// signs scan increments; pass nil to disable counting (resolution still
// works).
func New(
	reader ledger.Reader,
	builder *txbuilder.Builder,
	engine *access.Engine,
	store metadata.Store,
	operator *wallet.Session,
	publisher events.Publisher,
	log *zap.Logger,
) *Service {
	return &Service{
		reader:    reader,
		builder:   builder,
		engine:    engine,
		store:     store,
		operator:  operator,
		publisher: publisher,
		log:       log,
	}
}

// Resolve handles one scan. Policy denials come back as typed errors with
// the verdict's reason and details attached; a denied scan increments
// nothing.
func (s *Service) Resolve(ctx context.Context, eventID string, viewer access.ViewerContext) (*Resolution, error) {
	start := time.Now()
	defer func() {
		metrics.ResolveDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	raw, err := s.reader.GlobalState(ctx, s.builder.AppID())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "ledger read failed")
	}
	ev, err := statecodec.DecodeEvent(raw, eventID)
	if err != nil {
		if errors.Is(err, statecodec.ErrNotFound) {
			metrics.ScansDenied.WithLabelValues("event_not_found").Inc()
			return nil, apperrors.New(apperrors.CodeEventNotFound, "event %s not found", eventID)
		}
		return nil, err
	}

	verdict, err := s.engine.Evaluate(ctx, ev, viewer)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "access evaluation failed")
	}
	if !verdict.Allowed {
		metrics.ScansDenied.WithLabelValues(verdict.Reason).Inc()
		return nil, denialError(eventID, verdict)
	}

	metrics.ScansResolved.Inc()
	s.incrementScanAsync(eventID, viewer)

	_ = s.publisher.Publish(ctx, events.StreamScans, events.Event{
		Type: events.EventScanRecorded,
		Payload: map[string]any{
			"event_id":   eventID,
			"viewer":     viewer.Address,
			"scanned_at": start.UTC().Format(time.RFC3339),
		},
	})

	res := &Resolution{
		RedirectURL: ev.CurrentURL,
		EventID:     ev.EventID,
		EventName:   ev.EventName,
		AccessType:  ev.AccessType,
		// The just-fired increment is not reflected yet; the count is the
		// pre-scan value.
		ScanCount: ev.ScanCount,
	}

	// Last-scanned comes from the off-chain companion record, best-effort:
	// a missing or unreadable record only costs the field.
	if s.store != nil {
		if md, err := s.store.Get(ctx, eventID); err == nil {
			res.LastScanned = md.LastScannedAt
		} else if !errors.Is(err, metadata.ErrNotFound) {
			s.log.Debug("metadata read failed during resolve",
				zap.String("event_id", eventID), zap.Error(err))
		}
	}

	return res, nil
}

// denialError maps a policy verdict onto the error taxonomy. Inactive and
// expired keep their dedicated codes; everything else is an access denial
// carrying the verdict's reason.
func denialError(eventID string, v access.Verdict) *apperrors.Error {
	details := map[string]any{"reason": v.Reason}
	for k, val := range v.Details {
		details[k] = val
	}

	switch v.Reason {
	case access.ReasonEventInactive:
		return apperrors.New(apperrors.CodeEventInactive, "event %s is inactive", eventID).WithDetails(details)
	case access.ReasonEventExpired:
		return apperrors.New(apperrors.CodeEventExpired, "event %s has expired", eventID).WithDetails(details)
	default:
		return apperrors.New(apperrors.CodeAccessDenied, "access to event %s denied: %s", eventID, v.Reason).WithDetails(details)
	}
}

// incrementScanAsync fires the on-chain scan-count increment without
// blocking the redirect. Failures are logged and counted, never surfaced
// to the scanner.
func (s *Service) incrementScanAsync(eventID string, viewer access.ViewerContext) {
	if s.operator == nil {
		return
	}
	account := s.operator.Account()
	if account == nil {
		s.log.Warn("operator wallet not connected, scan not counted", zap.String("event_id", eventID))
		metrics.ScanIncrementFailures.Inc()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), incrementTimeout)
		defer cancel()

		if err := s.incrementScan(ctx, eventID, account.Address); err != nil {
			metrics.ScanIncrementFailures.Inc()
			s.log.Error("scan increment failed",
				zap.String("event_id", eventID),
				zap.String("viewer", viewer.Address),
				zap.Error(err),
			)
			_ = s.publisher.Publish(ctx, events.StreamScans, events.Event{
				Type: events.EventScanIncrementFailed,
				Payload: map[string]any{
					"event_id": eventID,
					"error":    err.Error(),
				},
			})
		}
	}()
}

func (s *Service) incrementScan(ctx context.Context, eventID, operatorAddr string) error {
	txn, err := s.builder.AppCall(ctx, txbuilder.MethodIncrementScan, eventID, operatorAddr)
	if err != nil {
		return err
	}
	_, err = s.operator.SignAndSubmit(ctx, []types.Transaction{txn})
	return err
}

// Drain blocks until all in-flight scan increments have finished. Called
// on shutdown so pending counts are not dropped.
func (s *Service) Drain() {
	s.wg.Wait()
}
