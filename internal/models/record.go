package models

// RecordSource marks extraction records produced by the model.
const RecordSource = "aiGenerated"

// ExtractionRecord is the model's structured judgment about one piece of
// content. IsJobAd is the discriminant: when false only Reason (or the
// Unparsable/Raw pair) is meaningful; when true every job field is present,
// empty string standing in for unknown.
type ExtractionRecord struct {
	Source  string `json:"source,omitempty" firestore:"source,omitempty"`
	IsJobAd bool   `json:"isJobAd" firestore:"isJobAd"`

	// Negative branch.
	Reason string `json:"reason,omitempty" firestore:"reason,omitempty"`

	// Set when the model response contained no parsable JSON object.
	// The item still completes as a non-ad; Raw preserves the original text.
	Unparsable bool   `json:"unparsable,omitempty" firestore:"-"`
	Raw        string `json:"raw,omitempty" firestore:"-"`

	// Positive branch.
	Position     string `json:"position,omitempty" firestore:"position,omitempty"`
	Title        string `json:"title,omitempty" firestore:"title,omitempty"`
	Description  string `json:"description,omitempty" firestore:"description,omitempty"`
	City         string `json:"city,omitempty" firestore:"city,omitempty"`
	Address      string `json:"address,omitempty" firestore:"address,omitempty"`
	Company      string `json:"company,omitempty" firestore:"company,omitempty"`
	VacancyCount string `json:"vacancyCount,omitempty" firestore:"vacancyCount,omitempty"`
	Requirements string `json:"requirements,omitempty" firestore:"requirements,omitempty"`
	SalaryRange  string `json:"salaryRange,omitempty" firestore:"salaryRange,omitempty"`
	Phone        string `json:"phone,omitempty" firestore:"phone,omitempty"`
	Email        string `json:"email,omitempty" firestore:"email,omitempty"`
	Website      string `json:"website,omitempty" firestore:"website,omitempty"`
	WorkingHours string `json:"workingHours,omitempty" firestore:"workingHours,omitempty"`

	// Stamped by the persistence gateway after a successful commit.
	ImageURL   string `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	DocumentID string `json:"firestoreDocId,omitempty" firestore:"firestoreDocId,omitempty"`
}
