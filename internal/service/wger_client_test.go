package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newWgerFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	translations := []map[string]any{
		{"exercise": 1, "name": "Bench Press"},
		{"exercise": 2, "name": "Incline Bench Press"},
		{"exercise": 3, "name": "Bench Dips"},
		{"exercise": 4, "name": "Treadmill Run"},
		{"exercise": 5, "name": "Back Squat"},
	}
	details := map[string]map[string]any{
		"/exercise/1/": {"muscles": []int{2}, "muscles_secondary": []int{5}},
		"/exercise/2/": {"muscles": []int{2}, "muscles_secondary": []int{}},
		"/exercise/3/": {"muscles": []int{5}, "muscles_secondary": []int{}},
		"/exercise/4/": {"muscles": []int{}, "muscles_secondary": []int{}},
		"/exercise/5/": {"muscles": []int{10}, "muscles_secondary": []int{4}},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if detail, ok := details[r.URL.Path]; ok {
			json.NewEncoder(w).Encode(detail)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/exercise-translation/") {
			needle := strings.ToLower(r.URL.Query().Get("name__icontains"))
			results := make([]map[string]any, 0, len(translations))
			for _, tr := range translations {
				name := strings.ToLower(tr["name"].(string))
				if needle == "" || strings.Contains(name, needle) {
					results = append(results, tr)
				}
			}
			// 浏览接口按 offset 翻页
			if needle == "" && r.URL.Query().Get("offset") != "0" && r.URL.Query().Get("offset") != "" {
				results = nil
			}
			json.NewEncoder(w).Encode(map[string]any{"results": results})
			return
		}
		http.NotFound(w, r)
	}))
}

func TestWgerSearch(t *testing.T) {
	server := newWgerFixtureServer(t)
	defer server.Close()

	client := NewWgerClient(server.URL, time.Second)

	records, err := client.Search(context.Background(), "bench press", 10)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	// "Bench Dips" 缺 press 一词，应被过滤掉
	if len(records) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(records), records)
	}
	// 完全相等的名称排最前
	if records[0].Name != "Bench Press" {
		t.Fatalf("expected exact match first, got %s", records[0].Name)
	}
	if records[0].Source != "wger" || records[0].SourceRef != "1" {
		t.Fatalf("unexpected provenance: %+v", records[0])
	}
	if records[0].Muscles.Primary[0] != "chest" {
		t.Fatalf("expected chest as primary muscle, got %+v", records[0].Muscles)
	}
}

func TestWgerSearchCardioHeuristic(t *testing.T) {
	server := newWgerFixtureServer(t)
	defer server.Close()

	client := NewWgerClient(server.URL, time.Second)

	records, err := client.Search(context.Background(), "treadmill run", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 match, got %d", len(records))
	}
	if records[0].Category != "cardio" || records[0].DefaultUnit != "min" {
		t.Fatalf("expected cardio defaults, got %+v", records[0])
	}
}

func TestWgerBrowseWithMuscleFilter(t *testing.T) {
	server := newWgerFixtureServer(t)
	defer server.Close()

	client := NewWgerClient(server.URL, time.Second)

	records, err := client.Browse(context.Background(), 10, 0, "quads")
	if err != nil {
		t.Fatalf("Browse returned error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Back Squat" {
		t.Fatalf("expected only the squat to hit quads, got %+v", records)
	}
}

func TestWgerUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWgerClient(server.URL, time.Second)

	if _, err := client.Search(context.Background(), "bench", 5); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// 连不上也归为上游不可用
	server.Close()
	if _, err := client.Browse(context.Background(), 5, 0, ""); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable for dead server, got %v", err)
	}
}

func TestValidMuscleSlug(t *testing.T) {
	if !ValidMuscleSlug("quads") {
		t.Fatal("expected quads to be a valid slug")
	}
	if ValidMuscleSlug("wings") {
		t.Fatal("expected wings to be rejected")
	}

	// 固定选项与 ID 映射保持一致
	for _, slug := range wgerMuscleSlugs {
		if !ValidMuscleSlug(slug) {
			t.Fatalf("mapped slug %s missing from options", slug)
		}
	}
}
