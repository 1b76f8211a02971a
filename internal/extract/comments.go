package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hxcodewarrior/ctripcrawler/internal/fetch"
	"hxcodewarrior/ctripcrawler/logger"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	digitsPattern     = regexp.MustCompile(`\d+`)
	plainDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// CommentExtractor converts one comment-page payload into normalized records.
// It never fails on missing optional fields: every field falls back through
// the key names the site's several endpoints have used, and resolves to an
// empty value when none is present.
type CommentExtractor struct {
	log *logger.Logger
}

// NewCommentExtractor creates a comment extractor
func NewCommentExtractor() *CommentExtractor {
	return &CommentExtractor{log: logger.ForTarget("extract")}
}

// Extract returns the normalized comments found in the payload. JSON payloads
// go through the multi-shape list resolution; HTML payloads are rendered
// pages whose comment items are selected directly. An unrecognized payload
// shape yields an empty slice, not an error; the shape is logged so new
// endpoint variants can be diagnosed.
func (e *CommentExtractor) Extract(payload fetch.RawPayload) []CommentRecord {
	if payload.Kind == fetch.KindHTML {
		return e.extractHTML(payload.Body)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload.Body, &decoded); err != nil {
		e.log.Warn().Err(err).Msg("Comment payload is not a JSON object")
		return nil
	}

	items, ok := resolveCommentList(decoded)
	if !ok {
		keys := make([]string, 0, len(decoded))
		for k := range decoded {
			keys = append(keys, k)
		}
		e.log.Warn().Strs("top_level_keys", keys).Msg("Unrecognized comment payload shape")
		return nil
	}

	records := make([]CommentRecord, 0, len(items))
	for _, item := range items {
		comment, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		records = append(records, e.extractOne(comment))
	}
	return records
}

// extractHTML pulls comments off a rendered page. The comment list lives in
// div.commentItem blocks once the category tab has been clicked.
func (e *CommentExtractor) extractHTML(body []byte) []CommentRecord {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.log.Warn().Err(err).Msg("Comment page is not parseable HTML")
		return nil
	}

	var records []CommentRecord
	doc.Find("div.commentItem").Each(func(_ int, item *goquery.Selection) {
		records = append(records, e.extractHTMLOne(item))
	})
	return records
}

// extractHTMLOne reads one rendered comment item. The score span reads like
// "5分 满意", the time div like "发表于2024-09-13", the ip span like
// "IP属地：青海"; each field degrades to empty independently.
func (e *CommentExtractor) extractHTMLOne(item *goquery.Selection) CommentRecord {
	score := ""
	if text := strings.TrimSpace(item.Find("span.averageScore").First().Text()); text != "" {
		score = digitsPattern.FindString(text)
	}

	date := ""
	if text := strings.TrimSpace(item.Find("div.commentTime").First().Text()); text != "" {
		date = plainDatePattern.FindString(text)
	}

	ip := ""
	if text := strings.TrimSpace(item.Find("span.ipContent").First().Text()); text != "" {
		parts := strings.Split(text, "：")
		ip = strings.TrimSpace(parts[len(parts)-1])
		if ip == "未知" {
			ip = ""
		}
	}

	return CommentRecord{
		Username:    strings.TrimSpace(item.Find("div.userName").First().Text()),
		Score:       score,
		Content:     cleanContent(item.Find("div.commentDetail").First().Text()),
		Date:        date,
		UsefulCount: "0",
		ReplyCount:  "0",
		IPLocation:  ip,
		ImageCount:  "0",
	}
}

func (e *CommentExtractor) extractOne(comment map[string]interface{}) CommentRecord {
	scenery, fun, value := parseSubScores(comment["scores"])

	rawDate := stringField(comment, "date", "publishTime", "createTime", "extInfo.publishTime")

	return CommentRecord{
		Username:     stringField(comment, "uid", "userInfo.userNick", "userNick", "username"),
		Score:        stringField(comment, "score", "commentScore"),
		SceneryScore: scenery,
		FunScore:     fun,
		ValueScore:   value,
		Content:      cleanContent(stringField(comment, "content", "extData.content")),
		Date:         NormalizeDate(rawDate),
		UsefulCount:  intField(comment, "usefulCount"),
		ReplyCount:   intField(comment, "replyCount"),
		TouristType:  stringField(comment, "touristTypeDisplay"),
		IPLocation:   stringField(comment, "ipLocatedName"),
		Duration:     stringField(comment, "timeDuration"),
		ImageCount:   imageCount(comment["images"]),
	}
}

// parseSubScores pulls the named sub-scores out of the detail score list
func parseSubScores(v interface{}) (scenery, fun, value string) {
	scores, ok := v.([]interface{})
	if !ok {
		return
	}
	for _, entry := range scores {
		item, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		score := valueToString(item["score"])
		switch valueToString(item["name"]) {
		case "景色":
			scenery = score
		case "趣味":
			fun = score
		case "性价比":
			value = score
		}
	}
	return
}

func imageCount(v interface{}) string {
	images, ok := v.([]interface{})
	if !ok {
		return "0"
	}
	return valueToString(float64(len(images)))
}

// cleanContent collapses whitespace so the content fits one delimited field
func cleanContent(content string) string {
	if content == "" {
		return ""
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(content, " "))
}

// TotalCount reports the comment total a page-1 probe carries. JSON probes
// try the count field names of each endpoint generation; HTML probes read
// the category's hot-tag count off the rendered page, which is where the
// per-category totals live. Zero means the count is unknown.
func TotalCount(payload fetch.RawPayload, category Category) int {
	if payload.Kind == fetch.KindHTML {
		return htmlTotalCount(payload.Body, category)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload.Body, &decoded); err != nil {
		return 0
	}

	for _, path := range []string{"result.totalCount", "data.cmtquantity", "totalCount"} {
		if v, ok := lookup(decoded, path); ok {
			if n := intValue(v); n > 0 {
				return n
			}
		}
	}
	return 0
}

func htmlTotalCount(body []byte, category Category) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0
	}

	total := 0
	doc.Find("div.hotTags span.hotTag").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, category.Label) {
			return true
		}
		total = intValue(tagCount(text, category.Label))
		return false
	})
	return total
}
