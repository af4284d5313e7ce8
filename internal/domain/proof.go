package domain

import "time"

// MediaKind tags the stored proof media.
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindDocument MediaKind = "document"
)

// ProofType maps the media kind to the sale-facing proof type.
func (k MediaKind) ProofType() ProofType {
	if k == MediaKindImage {
		return ProofTypeImage
	}
	return ProofTypePdf
}

// Proof is a payment receipt (image or document) seen in the group,
// stored unlinked until a sale report claims it. Linked flips to true
// exactly once; claiming is a compare-and-swap in the repository.
type Proof struct {
	ID              string
	SourceMessageID string
	MediaURL        string
	MediaKind       MediaKind
	MimeType        string
	Caption         string
	SenderID        string
	SenderName      string
	GroupID         string
	ReceivedAt      time.Time
	Linked          bool
	CreatedAt       time.Time
}
