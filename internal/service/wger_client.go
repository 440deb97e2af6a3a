package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fitlog/internal/db"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MuscleOption 是对外暴露的肌群筛选项
type MuscleOption struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// MuscleOptions 列出合法的肌群 slug，顺序固定。
// slug 必须与 wgerMuscleSlugs 的取值保持一致
func MuscleOptions() []MuscleOption {
	return []MuscleOption{
		{Slug: "biceps", Label: "Biceps"},
		{Slug: "triceps", Label: "Triceps"},
		{Slug: "chest", Label: "Chest"},
		{Slug: "lats", Label: "Lats / Back"},
		{Slug: "traps", Label: "Trapezius"},
		{Slug: "lower_back", Label: "Lower Back"},
		{Slug: "quads", Label: "Quads"},
		{Slug: "hams", Label: "Hamstrings"},
		{Slug: "glutes", Label: "Glutes"},
		{Slug: "calves", Label: "Calves"},
		{Slug: "front_delts", Label: "Front Delts"},
		{Slug: "side_delts", Label: "Side Delts"},
		{Slug: "abs", Label: "Abs / Core"},
	}
}

// wgerMuscleSlugs 把 WGER 的肌群 ID 映射到本地 slug
var wgerMuscleSlugs = map[int]string{
	1:  "biceps",
	2:  "chest",
	3:  "front_delts",
	4:  "glutes",
	5:  "triceps",
	6:  "calves",
	7:  "hams",
	8:  "abs",
	9:  "lower_back",
	10: "quads",
	11: "lats",
	12: "traps",
	13: "side_delts",
}

// WgerClient 访问 WGER 公共动作库，产出归一化的 ImportedExercise。
// 请求有短超时，调用期间不持有任何数据库事务
type WgerClient struct {
	baseURL string
	http    httpDoer
}

// NewWgerClient 构造 WgerClient，baseURL 可注入以便测试
func NewWgerClient(baseURL string, timeout time.Duration) *WgerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient 替换底层 HTTP 客户端，测试用
func (c *WgerClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c.http = client
}

type wgerTranslation struct {
	Exercise int    `json:"exercise"`
	Name     string `json:"name"`
}

type wgerTranslationPage struct {
	Results []wgerTranslation `json:"results"`
}

type wgerExerciseDetail struct {
	Muscles          []int `json:"muscles"`
	MusclesSecondary []int `json:"muscles_secondary"`
}

// Search 按名称搜索外部动作库。结果要求包含查询里的每个词，
// 并按 (完全相等, 前缀命中, 词命中数) 排序
func (c *WgerClient) Search(ctx context.Context, query string, limit int) ([]ImportedExercise, error) {
	q := normalizeWhitespace(query)
	if q == "" {
		return nil, nil
	}
	limit = clampWgerLimit(limit)
	tokens := strings.Fields(strings.ToLower(q))

	params := url.Values{}
	params.Set("language", "2")
	params.Set("limit", strconv.Itoa(max(limit*3, 30)))
	params.Set("name__icontains", q)

	page, err := c.fetchTranslations(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]ImportedExercise, 0, limit)
	seen := make(map[int]bool)
	for _, tr := range page.Results {
		name := normalizeWhitespace(tr.Name)
		if tr.Exercise == 0 || name == "" || seen[tr.Exercise] {
			continue
		}
		seen[tr.Exercise] = true

		if !containsAllTokens(name, tokens) {
			continue
		}

		out = append(out, c.buildRecord(ctx, tr.Exercise, name))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return scoreName(out[i].Name, tokens) > scoreName(out[j].Name, tokens)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Browse 分页浏览外部动作库，可选按肌群 slug 过滤。
// 过滤在详情数据上进行，因此会持续翻页直到凑够 offset+limit 条
func (c *WgerClient) Browse(ctx context.Context, limit, offset int, muscle string) ([]ImportedExercise, error) {
	limit = clampWgerLimit(limit)
	if offset < 0 {
		offset = 0
	}
	muscleSlug := strings.ToLower(strings.TrimSpace(muscle))

	pageSize := 50
	apiOffset := 0
	seen := make(map[int]bool)
	matches := make([]ImportedExercise, 0, offset+limit)

	for len(matches) < offset+limit {
		params := url.Values{}
		params.Set("language", "2")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(apiOffset))

		page, err := c.fetchTranslations(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(page.Results) == 0 {
			break
		}

		for _, tr := range page.Results {
			name := normalizeWhitespace(tr.Name)
			if tr.Exercise == 0 || name == "" || seen[tr.Exercise] {
				continue
			}
			seen[tr.Exercise] = true

			rec := c.buildRecord(ctx, tr.Exercise, name)
			if muscleSlug != "" && !recordHitsMuscle(rec, muscleSlug) {
				continue
			}
			matches = append(matches, rec)
			if len(matches) >= offset+limit {
				break
			}
		}

		apiOffset += pageSize
	}

	if offset >= len(matches) {
		return nil, nil
	}
	return matches[offset:], nil
}

// fetchTranslations 请求英文动作名列表，失败统一归为上游不可用
func (c *WgerClient) fetchTranslations(ctx context.Context, params url.Values) (*wgerTranslationPage, error) {
	endpoint := fmt.Sprintf("%s/exercise-translation/?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "fitlog/0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: wger returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var page wgerTranslationPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}
	return &page, nil
}

// fetchDetail 读取单个动作的肌群信息；失败时返回空详情而不是中断整批
func (c *WgerClient) fetchDetail(ctx context.Context, exerciseID int) wgerExerciseDetail {
	endpoint := fmt.Sprintf("%s/exercise/%d/", c.baseURL, exerciseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return wgerExerciseDetail{}
	}
	req.Header.Set("User-Agent", "fitlog/0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return wgerExerciseDetail{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wgerExerciseDetail{}
	}

	var detail wgerExerciseDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return wgerExerciseDetail{}
	}
	return detail
}

func (c *WgerClient) buildRecord(ctx context.Context, exerciseID int, name string) ImportedExercise {
	detail := c.fetchDetail(ctx, exerciseID)
	category := categoryForName(name)

	defaultUnit := "kg"
	if category == db.CategoryCardio {
		defaultUnit = "min"
	}

	return ImportedExercise{
		Source:      "wger",
		SourceRef:   strconv.Itoa(exerciseID),
		Name:        name,
		Category:    category,
		DefaultUnit: defaultUnit,
		Muscles: ImportedMuscles{
			Primary:   slugsForIDs(detail.Muscles),
			Secondary: slugsForIDs(detail.MusclesSecondary),
		},
	}
}

func recordHitsMuscle(rec ImportedExercise, slug string) bool {
	for _, hit := range rec.Muscles.Primary {
		if hit == slug {
			return true
		}
	}
	for _, hit := range rec.Muscles.Secondary {
		if hit == slug {
			return true
		}
	}
	return false
}

func slugsForIDs(ids []int) []string {
	var slugs []string
	for _, id := range ids {
		if slug, ok := wgerMuscleSlugs[id]; ok {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}

// categoryForName 按名称关键词粗分类，跑步/单车/划船归为有氧
func categoryForName(name string) string {
	lower := strings.ToLower(name)
	for _, token := range []string{"run", "treadmill", "bike", "row"} {
		if strings.Contains(lower, token) {
			return db.CategoryCardio
		}
	}
	return db.CategoryStrength
}

func containsAllTokens(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, token := range tokens {
		if !strings.Contains(lower, token) {
			return false
		}
	}
	return true
}

// scoreName 为搜索结果打分：完全相等 > 词前缀命中 > 词命中数
func scoreName(name string, tokens []string) int {
	lower := strings.ToLower(name)
	words := strings.Fields(lower)

	score := 0
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			score++
		}
	}
	prefix := false
	for _, token := range tokens {
		for _, word := range words {
			if strings.HasPrefix(word, token) {
				prefix = true
				break
			}
		}
		if prefix {
			break
		}
	}
	if prefix {
		score += 10
	}
	if lower == strings.Join(tokens, " ") {
		score += 100
	}
	return score
}

func clampWgerLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// ValidMuscleSlug 校验肌群筛选参数
func ValidMuscleSlug(slug string) bool {
	for _, option := range MuscleOptions() {
		if option.Slug == slug {
			return true
		}
	}
	return false
}
