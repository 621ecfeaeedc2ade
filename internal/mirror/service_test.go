package mirror

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okcodes/github-assets-to-s3/internal/model"
	"github.com/okcodes/github-assets-to-s3/internal/report"
)

func newRunAPI() *stubAPI {
	return &stubAPI{
		byTag: map[string]model.Release{"v1.0.0": {ID: 10, TagName: "v1.0.0"}},
		release: model.Release{
			ID:      10,
			TagName: "v1.0.0",
			Body:    "Hand written notes.",
			HTMLURL: "https://github.com/owner/repo/releases/tag/v1.0.0",
		},
		assets: []model.ReleaseAsset{
			{ID: 1, Name: "app_x86_64-pc-windows-msvc.exe"},
			{ID: 2, Name: "app.json"},
		},
		contents: map[int64]string{1: "exe", 2: "{}"},
	}
}

func TestService_Run_Success(t *testing.T) {
	api := newRunAPI()
	store := newStubStorage()
	var summary bytes.Buffer
	svc := NewService(api, store, Options{
		Folder:        "v1.0.0",
		UpdateRelease: true,
		URLFor:        func(key string) string { return "https://cdn.example.com/" + key },
		Summary:       &summary,
	})

	result, err := svc.Run(context.Background(), Request{Repo: testRepo, Tag: "v1.0.0", RunID: testRunID})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(result.Transfers))
	}
	if store.objects["v1.0.0/app.json"] != "{}" {
		t.Errorf("expected app.json in storage, got %v", store.objects)
	}
	if !strings.Contains(result.Report, "## Windows 64-bit") || !strings.Contains(result.Report, "## app") {
		t.Errorf("unexpected report:\n%s", result.Report)
	}
	if result.AnnotationErr != nil {
		t.Errorf("unexpected annotation error: %v", result.AnnotationErr)
	}
	if len(api.updates) != 1 {
		t.Fatalf("expected one release update, got %d", len(api.updates))
	}
	if api.updates[0].TagName != "v1.0.0" {
		t.Errorf("expected tag to be kept, got %q", api.updates[0].TagName)
	}
	if !strings.HasPrefix(api.updates[0].Body, "Hand written notes.\n\n"+report.StartMarker) {
		t.Errorf("unexpected release body:\n%s", api.updates[0].Body)
	}
	if !strings.Contains(summary.String(), "## 2 release assets transferred to S3") {
		t.Errorf("unexpected summary:\n%s", summary.String())
	}
	if !strings.Contains(summary.String(), "https://cdn.example.com/v1.0.0/app.json") {
		t.Errorf("summary misses object URL:\n%s", summary.String())
	}
}

func TestService_Run_ByID(t *testing.T) {
	api := newRunAPI()
	api.byTagErr = errors.New("must not be called")
	svc := NewService(api, newStubStorage(), Options{})

	result, err := svc.Run(context.Background(), Request{Repo: testRepo, ReleaseID: 10, RunID: testRunID})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Release.TagName != "v1.0.0" {
		t.Errorf("expected release v1.0.0, got %q", result.Release.TagName)
	}
	if len(api.updates) != 0 {
		t.Errorf("release must not be annotated when disabled")
	}
}

func TestService_Run_AnnotationFailureIsNotFatal(t *testing.T) {
	api := newRunAPI()
	api.updateErr = errors.New("resource not accessible by integration")
	svc := NewService(api, newStubStorage(), Options{UpdateRelease: true})

	result, err := svc.Run(context.Background(), Request{Repo: testRepo, Tag: "v1.0.0", RunID: testRunID})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.AnnotationErr == nil || !strings.Contains(result.AnnotationErr.Error(), "not accessible") {
		t.Fatalf("expected annotation error, got %v", result.AnnotationErr)
	}
	if len(result.Transfers) != 2 {
		t.Errorf("expected transfers despite annotation failure, got %d", len(result.Transfers))
	}
}

func TestService_Run_TransferFailureIsFatal(t *testing.T) {
	api := newRunAPI()
	api.downloadErr = map[int64]error{2: errors.New("boom")}
	var summary bytes.Buffer
	svc := NewService(api, newStubStorage(), Options{UpdateRelease: true, Summary: &summary})

	if _, err := svc.Run(context.Background(), Request{Repo: testRepo, Tag: "v1.0.0", RunID: testRunID}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(api.updates) != 0 || summary.Len() != 0 {
		t.Errorf("nothing may be published after a failed transfer")
	}
}

func TestService_Run_InvalidRequest(t *testing.T) {
	svc := NewService(newRunAPI(), newStubStorage(), Options{})

	tests := []struct {
		name string
		req  Request
	}{
		{name: "invalid run id", req: Request{Repo: testRepo, Tag: "v1.0.0", RunID: "not-a-uuid"}},
		{name: "neither id nor tag", req: Request{Repo: testRepo, RunID: testRunID}},
		{name: "both id and tag", req: Request{Repo: testRepo, ReleaseID: 10, Tag: "v1.0.0", RunID: testRunID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Run(context.Background(), tt.req); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestService_AnnotateRelease_Idempotent(t *testing.T) {
	api := newRunAPI()
	svc := NewService(api, newStubStorage(), Options{})
	rendered := "## app\n| Asset | Size |\n| - | - |\n| [app.json](u) | 2 B |"

	for i := 0; i < 2; i++ {
		if err := svc.AnnotateRelease(context.Background(), testRepo, 10, rendered); err != nil {
			t.Fatalf("AnnotateRelease() #%d error = %v", i, err)
		}
	}

	body := api.release.Body
	want := "Hand written notes.\n\n" + report.StartMarker + "\n" + rendered + "\n" + report.EndMarker
	if body != want {
		t.Fatalf("body =\n%q\nwant\n%q", body, want)
	}
	if api.updates[0].Body != api.updates[1].Body {
		t.Errorf("second annotation drifted:\n%q\n%q", api.updates[0].Body, api.updates[1].Body)
	}
}

func TestService_AnnotateRelease_GetError(t *testing.T) {
	api := newRunAPI()
	api.getErr = errors.New("gone")
	svc := NewService(api, newStubStorage(), Options{})

	if err := svc.AnnotateRelease(context.Background(), testRepo, 10, "x"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
