package access

import (
	"context"
	"fmt"
	"time"

	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/models"
	"go.uber.org/zap"
)

// Verdict reasons
const (
	ReasonEventInactive  = "event_inactive"
	ReasonEventExpired   = "event_expired"
	ReasonWalletRequired = "wallet_required"
	ReasonNFTRequired    = "nft_required"
	ReasonOutsideWindow  = "outside_window"
	ReasonUnknownPolicy  = "unknown_access_type"
)

// Verdict is the structured outcome of a policy evaluation. Never a bare
// boolean: the resolver turns Reason and Details into an actionable message.
type Verdict struct {
	Allowed bool           `json:"allowed"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func allowed() Verdict { return Verdict{Allowed: true} }

func denied(reason string, details map[string]any) Verdict {
	return Verdict{Allowed: false, Reason: reason, Details: details}
}

// ViewerContext identifies who is scanning. Address is empty for an
// anonymous viewer.
type ViewerContext struct {
	Address string
}

// TimeWindow is a daily access window for time-based events.
type TimeWindow struct {
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
	Location  *time.Location
}

func (w TimeWindow) Contains(t time.Time) bool {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	minutes := local.Hour()*60 + local.Minute()
	open := w.OpenHour*60 + w.OpenMin
	close := w.CloseHour*60 + w.CloseMin
	return minutes >= open && minutes < close
}

func (w TimeWindow) Bounds() (string, string) {
	return fmt.Sprintf("%02d:%02d", w.OpenHour, w.OpenMin),
		fmt.Sprintf("%02d:%02d", w.CloseHour, w.CloseMin)
}

// Engine evaluates whether a viewer may resolve an event. Evaluation is
// stateless and runs once per resolution attempt; nothing is cached.
type Engine struct {
	reader ledger.Reader
	window TimeWindow
	now    func() time.Time
	log    *zap.Logger
}

func NewEngine(reader ledger.Reader, window TimeWindow, log *zap.Logger) *Engine {
	return &Engine{
		reader: reader,
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

// WithClock overrides the time source. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate returns the policy verdict for one resolution attempt. The error
// return is reserved for ledger failures during an NFT lookup; a policy
// denial is a verdict, not an error.
func (e *Engine) Evaluate(ctx context.Context, event *models.DynamicQREvent, viewer ViewerContext) (Verdict, error) {
	now := e.now()

	// Inactive and expired events deny regardless of policy.
	if !event.Active {
		return denied(ReasonEventInactive, nil), nil
	}
	if event.Expired(now) {
		return denied(ReasonEventExpired, map[string]any{
			"expired_at": event.ExpiryDate.Format(time.RFC3339),
		}), nil
	}

	switch event.AccessType {
	case models.AccessPublic:
		return allowed(), nil

	case models.AccessNFTGated:
		if viewer.Address == "" {
			return denied(ReasonWalletRequired, map[string]any{
				"nft_asset_id": event.NFTAssetID,
			}), nil
		}
		holds, err := e.reader.HoldsAsset(ctx, viewer.Address, event.NFTAssetID)
		if err != nil {
			return Verdict{}, fmt.Errorf("failed to check asset holding: %w", err)
		}
		if !holds {
			return denied(ReasonNFTRequired, map[string]any{
				"nft_asset_id": event.NFTAssetID,
				"viewer":       viewer.Address,
			}), nil
		}
		return allowed(), nil

	case models.AccessTimeBased:
		if e.window.Contains(now) {
			return allowed(), nil
		}
		opens, closes := e.window.Bounds()
		return denied(ReasonOutsideWindow, map[string]any{
			"opens_at":  opens,
			"closes_at": closes,
		}), nil

	default:
		e.log.Warn("event carries unknown access type",
			zap.String("event_id", event.EventID),
			zap.String("access_type", event.AccessType),
		)
		return denied(ReasonUnknownPolicy, map[string]any{
			"access_type": event.AccessType,
		}), nil
	}
}
