package models

import "time"

// EventMetadata is the off-chain companion record for an event. It is
// best-effort: writes never wait for ledger confirmation, so it may
// transiently disagree with on-chain state.
type EventMetadata struct {
	EventID          string               `json:"event_id"`
	Description      string               `json:"description,omitempty"`
	ResolverURL      string               `json:"resolver_url"` // derived once at creation, never changes
	Tags             []string             `json:"tags,omitempty"`
	Visibility       string               `json:"visibility,omitempty"` // listed / unlisted
	TicketTiers      []TicketTierMetadata `json:"ticket_tiers,omitempty"`
	OrganizerName    string               `json:"organizer_name,omitempty"`
	OrganizerContact string               `json:"organizer_contact,omitempty"`

	// Destination preview, scraped from CurrentURL on create/update.
	PreviewTitle       string `json:"preview_title,omitempty"`
	PreviewDescription string `json:"preview_description,omitempty"`

	LastUpdatedAt time.Time  `json:"last_updated_at"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
}

type TicketTierMetadata struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"` // numeric as string
	Currency string   `json:"currency"`
	Quantity int      `json:"quantity"`
	Benefits []string `json:"benefits,omitempty"`
}

// MetadataPatch carries the fields of a partial metadata update. Nil fields
// are left untouched; set fields overwrite (last write wins per field).
type MetadataPatch struct {
	Description        *string               `json:"description,omitempty"`
	Tags               *[]string             `json:"tags,omitempty"`
	Visibility         *string               `json:"visibility,omitempty"`
	TicketTiers        *[]TicketTierMetadata `json:"ticket_tiers,omitempty"`
	OrganizerName      *string               `json:"organizer_name,omitempty"`
	OrganizerContact   *string               `json:"organizer_contact,omitempty"`
	PreviewTitle       *string               `json:"preview_title,omitempty"`
	PreviewDescription *string               `json:"preview_description,omitempty"`
	LastScannedAt      *time.Time            `json:"last_scanned_at,omitempty"`
}

// Apply merges the patch into m and bumps LastUpdatedAt.
func (m *EventMetadata) Apply(p MetadataPatch, now time.Time) {
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Tags != nil {
		m.Tags = *p.Tags
	}
	if p.Visibility != nil {
		m.Visibility = *p.Visibility
	}
	if p.TicketTiers != nil {
		m.TicketTiers = *p.TicketTiers
	}
	if p.OrganizerName != nil {
		m.OrganizerName = *p.OrganizerName
	}
	if p.OrganizerContact != nil {
		m.OrganizerContact = *p.OrganizerContact
	}
	if p.PreviewTitle != nil {
		m.PreviewTitle = *p.PreviewTitle
	}
	if p.PreviewDescription != nil {
		m.PreviewDescription = *p.PreviewDescription
	}
	if p.LastScannedAt != nil {
		m.LastScannedAt = p.LastScannedAt
	}
	m.LastUpdatedAt = now
}

// TierByName returns the index of the named tier, or -1.
func (m *EventMetadata) TierByName(name string) int {
	for i, t := range m.TicketTiers {
		if t.Name == name {
			return i
		}
	}
	return -1
}
