package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poke-max/job-analyzer/internal/models"
)

type fakeChat struct {
	reply      string
	err        error
	lastPrompt string
	lastImage  []byte
}

func (f *fakeChat) Complete(_ context.Context, prompt string, image []byte) (string, error) {
	f.lastPrompt = prompt
	f.lastImage = image
	return f.reply, f.err
}

func TestClassifyImageJobAd(t *testing.T) {
	chat := &fakeChat{reply: `{
		"source": "aiGenerated",
		"isJobAd": true,
		"position": "Cook",
		"title": "Cook wanted",
		"city": "Lima",
		"phone": "555-0101"
	}`}
	a := NewAnalyzer(chat)

	rec, err := a.ClassifyImage(context.Background(), []byte{1, 2, 3}, "")
	if err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if !rec.IsJobAd {
		t.Fatal("IsJobAd = false, want true")
	}
	if rec.Position != "Cook" || rec.City != "Lima" || rec.Phone != "555-0101" {
		t.Errorf("record = %+v, want fields from the reply", rec)
	}
	if rec.Source != models.RecordSource {
		t.Errorf("Source = %q, want %q", rec.Source, models.RecordSource)
	}
	if string(chat.lastImage) != string([]byte{1, 2, 3}) {
		t.Errorf("image passed through = %v, want original bytes", chat.lastImage)
	}
}

func TestClassifyImageNonAd(t *testing.T) {
	chat := &fakeChat{reply: `{"isJobAd": false, "reason": "it is a restaurant menu"}`}
	a := NewAnalyzer(chat)

	rec, err := a.ClassifyImage(context.Background(), []byte{1}, "")
	if err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if rec.IsJobAd {
		t.Error("IsJobAd = true, want false")
	}
	if rec.Reason != "it is a restaurant menu" {
		t.Errorf("Reason = %q, want the model reason", rec.Reason)
	}
	if rec.Unparsable {
		t.Error("Unparsable = true for a well-formed non-ad reply")
	}
}

func TestClassifyImageSupplementaryText(t *testing.T) {
	chat := &fakeChat{reply: `{"isJobAd": false}`}
	a := NewAnalyzer(chat)

	if _, err := a.ClassifyImage(context.Background(), []byte{1}, "call 555-0101"); err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if !strings.Contains(chat.lastPrompt, "Additional text provided:\ncall 555-0101") {
		t.Errorf("prompt does not carry the supplementary text:\n%s", chat.lastPrompt)
	}

	chat.lastPrompt = ""
	if _, err := a.ClassifyImage(context.Background(), []byte{1}, ""); err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if strings.Contains(chat.lastPrompt, "Additional text provided") {
		t.Error("prompt mentions supplementary text when none was given")
	}
}

func TestClassifyTextAppendsContent(t *testing.T) {
	chat := &fakeChat{reply: `{"isJobAd": true, "position": "Driver"}`}
	a := NewAnalyzer(chat)

	rec, err := a.ClassifyText(context.Background(), "drivers wanted, good pay")
	if err != nil {
		t.Fatalf("ClassifyText() error = %v", err)
	}
	if !rec.IsJobAd || rec.Position != "Driver" {
		t.Errorf("record = %+v, want a Driver job ad", rec)
	}
	if !strings.Contains(chat.lastPrompt, "Text to analyze:\ndrivers wanted, good pay") {
		t.Errorf("prompt does not carry the submitted text:\n%s", chat.lastPrompt)
	}
	if chat.lastImage != nil {
		t.Error("image sent for a text classification")
	}
}

func TestClassifyUnparsableReply(t *testing.T) {
	chat := &fakeChat{reply: "I am sorry, I cannot process this image."}
	a := NewAnalyzer(chat)

	rec, err := a.ClassifyImage(context.Background(), []byte{1}, "")
	if err != nil {
		t.Fatalf("ClassifyImage() error = %v, want nil: unparsable output is not an error", err)
	}
	if rec.IsJobAd {
		t.Error("IsJobAd = true for an unparsable reply")
	}
	if !rec.Unparsable {
		t.Error("Unparsable = false, want true")
	}
	if rec.Raw != chat.reply {
		t.Errorf("Raw = %q, want the verbatim reply", rec.Raw)
	}
}

func TestClassifyPropagatesTransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	a := NewAnalyzer(&fakeChat{err: wantErr})

	if _, err := a.ClassifyText(context.Background(), "anything"); !errors.Is(err, wantErr) {
		t.Errorf("ClassifyText() error = %v, want %v", err, wantErr)
	}
}

func TestClassifyMissingDiscriminantIsNonAd(t *testing.T) {
	chat := &fakeChat{reply: `{"position": "Cook", "city": "Lima"}`}
	a := NewAnalyzer(chat)

	rec, err := a.ClassifyText(context.Background(), "text")
	if err != nil {
		t.Fatalf("ClassifyText() error = %v", err)
	}
	if rec.IsJobAd {
		t.Error("IsJobAd = true without the discriminant, want false")
	}
}
