package export

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func validRequest() Request {
	return Request{
		InputPath:  "/videos/in.mp4",
		OutputPath: "/videos/out.mp4",
		Selection:  ClipSelection{Start: 1.5, End: 4},
		Crop:       CropArea{X: 0, Y: 10, Width: 640, Height: 360},
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr string
	}{
		{"valid", func(*Request) {}, ""},
		{"zero start", func(r *Request) { r.Selection.Start = 0 }, ""},
		{"missing input", func(r *Request) { r.InputPath = "" }, "input path is required"},
		{"missing output", func(r *Request) { r.OutputPath = "" }, "output path is required"},
		{"same paths", func(r *Request) { r.OutputPath = r.InputPath }, "must differ"},
		{"negative start", func(r *Request) { r.Selection.Start = -1 }, "negative"},
		{"end before start", func(r *Request) { r.Selection.End = 1 }, "must be after start"},
		{"empty range", func(r *Request) { r.Selection.End = r.Selection.Start }, "must be after start"},
		{"nan", func(r *Request) { r.Selection.End = math.NaN() }, "finite"},
		{"inf", func(r *Request) { r.Selection.End = math.Inf(1) }, "finite"},
		{"negative crop origin", func(r *Request) { r.Crop.X = -1 }, "crop origin"},
		{"zero crop width", func(r *Request) { r.Crop.Width = 0 }, "crop size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not match ErrInvalidRequest", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRequest_ValidateJoinsErrors(t *testing.T) {
	err := Request{}.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"input path", "output path", "crop size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestClipSelection_Duration(t *testing.T) {
	s := ClipSelection{Start: 1.5, End: 4}
	if got := s.Duration(); got != 2500*time.Millisecond {
		t.Errorf("Duration() = %v, want 2.5s", got)
	}
}
