package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hxcodewarrior/ctripcrawler/internal/fetch"
	"hxcodewarrior/ctripcrawler/logger"
	"hxcodewarrior/ctripcrawler/pkg/errors"
)

// DetailExtractor pulls the attraction fields off a rendered detail page.
// Each field is extracted independently; a missing element leaves the field
// empty rather than failing the record.
type DetailExtractor struct {
	log *logger.Logger
}

// NewDetailExtractor creates a detail extractor
func NewDetailExtractor() *DetailExtractor {
	return &DetailExtractor{log: logger.ForTarget("extract")}
}

// Extract parses the detail page HTML into an attraction record. Only a
// payload that cannot be parsed as HTML at all is an error.
func (e *DetailExtractor) Extract(payload fetch.RawPayload) (AttractionRecord, error) {
	if payload.Kind != fetch.KindHTML {
		return AttractionRecord{}, errors.NewParsing("", "detail payload is not HTML", nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload.Body))
	if err != nil {
		return AttractionRecord{}, errors.NewParsing("", "failed to parse detail page", err)
	}

	record := AttractionRecord{
		Name:    selectText(doc, "div.titleView h1"),
		Grade:   selectText(doc, "div.titleTips span"),
		Heat:    selectText(doc, "div.heatScoreText"),
		Score:   selectText(doc, "p.commentScoreNum"),
		Address: selectText(doc, "div.baseInfoItem p.baseInfoText"),
	}

	e.extractCommentTotals(doc, &record)

	if record.Name == "" {
		e.log.Warn().Msg("Detail page carried no attraction name")
	}
	return record, nil
}

func selectText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// extractCommentTotals reads the per-category counts off the hot tag spans.
// Tag text looks like "好评(1234)"; the count is the parenthesized part.
func (e *DetailExtractor) extractCommentTotals(doc *goquery.Document, record *AttractionRecord) {
	doc.Find("div.hotTags span.hotTag").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		switch {
		case strings.Contains(text, "消费后评价"):
			record.AfterTotal = tagCount(text, "消费后评价")
		case strings.Contains(text, "全部"):
			record.CommentsTotal = tagCount(text, "全部")
		case strings.Contains(text, "好评"):
			record.PositiveTotal = tagCount(text, "好评")
		case strings.Contains(text, "差评"):
			record.NegativeTotal = tagCount(text, "差评")
		}
	})
}

func tagCount(text, label string) string {
	count := strings.Replace(text, label, "", 1)
	count = strings.Trim(count, "()（）")
	return strings.TrimSpace(count)
}
