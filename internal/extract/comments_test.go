package extract

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxcodewarrior/ctripcrawler/internal/fetch"
)

func jsonPayload(t *testing.T, v interface{}) fetch.RawPayload {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return fetch.RawPayload{Kind: fetch.KindJSON, Body: body}
}

func sampleComments() []map[string]interface{} {
	return []map[string]interface{}{
		{"uid": "traveler_1", "score": 5, "content": "很棒的景点"},
		{"uid": "traveler_2", "score": 4, "content": "还不错"},
	}
}

// Every endpoint generation wraps the same comment list differently; each
// shape must normalize to the same records.
func TestExtractShapeVariants(t *testing.T) {
	extractor := NewCommentExtractor()
	comments := sampleComments()

	shapes := map[string]interface{}{
		"top_level_comments": map[string]interface{}{"comments": comments},
		"data_object":        map[string]interface{}{"data": map[string]interface{}{"comments": comments}},
		"data_list":          map[string]interface{}{"data": comments},
		"result_items":       map[string]interface{}{"result": map[string]interface{}{"items": comments}},
		"data_nested_scan":   map[string]interface{}{"data": map[string]interface{}{"wrapper": map[string]interface{}{"comments": comments}}},
	}

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			records := extractor.Extract(jsonPayload(t, shape))
			require.Len(t, records, 2)
			assert.Equal(t, "traveler_1", records[0].Username)
			assert.Equal(t, "5", records[0].Score)
			assert.Equal(t, "很棒的景点", records[0].Content)
			assert.Equal(t, "traveler_2", records[1].Username)
		})
	}
}

func TestExtractUnrecognizedShape(t *testing.T) {
	extractor := NewCommentExtractor()

	records := extractor.Extract(jsonPayload(t, map[string]interface{}{"unexpected": "shape"}))
	assert.Empty(t, records, "unknown shapes yield no records, not an error")

	records = extractor.Extract(fetch.RawPayload{Kind: fetch.KindJSON, Body: []byte("not json")})
	assert.Empty(t, records)

	records = extractor.Extract(fetch.RawPayload{Kind: fetch.KindHTML, Body: []byte("<html></html>")})
	assert.Empty(t, records)
}

func TestUsernameFallbackChain(t *testing.T) {
	extractor := NewCommentExtractor()

	payload := jsonPayload(t, map[string]interface{}{
		"comments": []map[string]interface{}{
			{"userInfo": map[string]interface{}{"userNick": "nested_nick"}, "content": "a"},
			{"userNick": "flat_nick", "content": "b"},
			{"username": "plain_name", "content": "c"},
			{"content": "no author at all"},
		},
	})

	records := extractor.Extract(payload)
	require.Len(t, records, 4)
	assert.Equal(t, "nested_nick", records[0].Username)
	assert.Equal(t, "flat_nick", records[1].Username)
	assert.Equal(t, "plain_name", records[2].Username)
	assert.Equal(t, "", records[3].Username, "missing author resolves to empty, not an error")
}

func TestOptionalFieldDefaults(t *testing.T) {
	extractor := NewCommentExtractor()

	payload := jsonPayload(t, map[string]interface{}{
		"result": map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"userInfo":           map[string]interface{}{"userNick": "张三"},
					"score":              4.5,
					"commentScore":       3,
					"content":            "风景\n很美\r\n值得一去",
					"publishTime":        "/Date(1726232792000+0800)/",
					"usefulCount":        12,
					"replyCount":         1,
					"touristTypeDisplay": "家庭亲子",
					"ipLocatedName":      "青海",
					"timeDuration":       "2小时",
					"images":             []interface{}{"a.jpg", "b.jpg"},
					"scores": []map[string]interface{}{
						{"name": "景色", "score": 5},
						{"name": "趣味", "score": 4},
						{"name": "性价比", "score": 3},
					},
				},
				{},
			},
		},
	})

	records := extractor.Extract(payload)
	require.Len(t, records, 2)

	full := records[0]
	assert.Equal(t, "张三", full.Username)
	assert.Equal(t, "4.5", full.Score, "score wins over commentScore")
	assert.Equal(t, "风景 很美 值得一去", full.Content, "newlines collapse into spaces")
	assert.Equal(t, "2024-09-13", full.Date)
	assert.Equal(t, "12", full.UsefulCount)
	assert.Equal(t, "1", full.ReplyCount)
	assert.Equal(t, "家庭亲子", full.TouristType)
	assert.Equal(t, "青海", full.IPLocation)
	assert.Equal(t, "2小时", full.Duration)
	assert.Equal(t, "2", full.ImageCount)
	assert.Equal(t, "5", full.SceneryScore)
	assert.Equal(t, "4", full.FunScore)
	assert.Equal(t, "3", full.ValueScore)

	empty := records[1]
	assert.Equal(t, "", empty.Username)
	assert.Equal(t, "", empty.Content)
	assert.Equal(t, "0", empty.UsefulCount)
	assert.Equal(t, "0", empty.ImageCount)
}

func TestExtractEmptyListIsRecognized(t *testing.T) {
	shapes := map[string]interface{}{
		"top_level":    map[string]interface{}{"comments": []interface{}{}},
		"data_list":    map[string]interface{}{"data": []interface{}{}},
		"data_object":  map[string]interface{}{"data": map[string]interface{}{"comments": []interface{}{}}},
		"result_items": map[string]interface{}{"result": map[string]interface{}{"items": []interface{}{}}},
	}

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			decoded := shape.(map[string]interface{})
			items, ok := resolveCommentList(decoded)
			assert.True(t, ok, "an exhausted category is a known shape, not a new one")
			assert.Empty(t, items)
		})
	}

	_, ok := resolveCommentList(map[string]interface{}{"unexpected": "shape"})
	assert.False(t, ok)
}

func TestResolveSkipsEmptyListForLaterShape(t *testing.T) {
	comments := sampleComments()
	payload := map[string]interface{}{
		"comments": []interface{}{},
		"data":     comments,
	}
	decoded := make(map[string]interface{})
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))

	items, ok := resolveCommentList(decoded)
	require.True(t, ok)
	assert.Len(t, items, 2, "a non-empty list further down still wins")
}

func TestNestedScanIsDeterministic(t *testing.T) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"zz_reviews": []interface{}{map[string]interface{}{"uid": "from_zz"}},
			"aa_reviews": []interface{}{map[string]interface{}{"uid": "from_aa"}},
		},
	}

	decoded := make(map[string]interface{})
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, json.Unmarshal(raw, &decoded))
		items, ok := resolveCommentList(decoded)
		require.True(t, ok)
		require.Len(t, items, 1)
		comment := items[0].(map[string]interface{})
		assert.Equal(t, "from_aa", comment["uid"], "keys are scanned in sorted order")
	}
}

func TestExtractRenderedPage(t *testing.T) {
	extractor := NewCommentExtractor()

	page := fetch.RawPayload{Kind: fetch.KindHTML, Body: []byte(`<html><body>
		<div class="commentItem">
			<div class="userName">张三</div>
			<span class="averageScore">5分 满意</span>
			<div class="commentDetail">风景
很美</div>
			<div class="commentTime">发表于2024-09-13</div>
			<span class="ipContent">IP属地：青海</span>
		</div>
		<div class="commentItem">
			<div class="userName">李四</div>
			<span class="averageScore">3分 一般</span>
			<div class="commentDetail">人太多</div>
			<div class="commentTime">2023-05-01 游玩</div>
			<span class="ipContent">IP属地：未知</span>
		</div>
		<div class="commentItem"></div>
	</body></html>`)}

	records := extractor.Extract(page)
	require.Len(t, records, 3)

	assert.Equal(t, "张三", records[0].Username)
	assert.Equal(t, "5", records[0].Score)
	assert.Equal(t, "风景 很美", records[0].Content)
	assert.Equal(t, "2024-09-13", records[0].Date)
	assert.Equal(t, "青海", records[0].IPLocation)

	assert.Equal(t, "李四", records[1].Username)
	assert.Equal(t, "3", records[1].Score)
	assert.Equal(t, "2023-05-01", records[1].Date)
	assert.Equal(t, "", records[1].IPLocation, "unknown ip reads as empty")

	assert.Equal(t, "", records[2].Username, "a bare item degrades to empty fields")
	assert.Equal(t, "0", records[2].UsefulCount)
}

func TestExtractRenderedPageWithoutComments(t *testing.T) {
	extractor := NewCommentExtractor()
	records := extractor.Extract(fetch.RawPayload{Kind: fetch.KindHTML, Body: []byte("<html><body><p>无评论</p></body></html>")})
	assert.Empty(t, records)
}

func TestScoreAndContentFallbacks(t *testing.T) {
	extractor := NewCommentExtractor()

	payload := jsonPayload(t, map[string]interface{}{
		"comments": []map[string]interface{}{
			{"commentScore": 4, "extData": map[string]interface{}{"content": "folded away"}},
			{"createTime": "2023-01-02 08:00:00"},
		},
	})

	records := extractor.Extract(payload)
	require.Len(t, records, 2)
	assert.Equal(t, "4", records[0].Score)
	assert.Equal(t, "folded away", records[0].Content)
	assert.Equal(t, "2023-01-02", records[1].Date)
}

func TestTotalCount(t *testing.T) {
	all, ok := CategoryByName("all")
	require.True(t, ok)

	cases := []struct {
		payload  interface{}
		expected int
	}{
		{map[string]interface{}{"result": map[string]interface{}{"totalCount": 1234}}, 1234},
		{map[string]interface{}{"data": map[string]interface{}{"cmtquantity": 95}}, 95},
		{map[string]interface{}{"totalCount": "42"}, 42},
		{map[string]interface{}{"result": map[string]interface{}{}}, 0},
		{map[string]interface{}{}, 0},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.expected, TotalCount(jsonPayload(t, c.payload), all))
		})
	}
}

func TestTotalCountFromRenderedPage(t *testing.T) {
	page := fetch.RawPayload{Kind: fetch.KindHTML, Body: []byte(`<html><body>
		<div class="hotTags">
			<span class="hotTag">全部(3562)</span>
			<span class="hotTag">好评(3102)</span>
			<span class="hotTag">消费后评价（871）</span>
			<span class="hotTag">差评(88)</span>
		</div>
	</body></html>`)}

	expected := map[string]int{
		"all":      3562,
		"positive": 3102,
		"after":    871,
		"negative": 88,
	}
	for name, total := range expected {
		category, ok := CategoryByName(name)
		require.True(t, ok)
		assert.Equal(t, total, TotalCount(page, category), name)
	}

	bare := fetch.RawPayload{Kind: fetch.KindHTML, Body: []byte("<html><body></body></html>")}
	all, _ := CategoryByName("all")
	assert.Equal(t, 0, TotalCount(bare, all))
}
