package extract

// RecordKind names the normalized record type an extractor produces
type RecordKind string

const (
	// KindAttractionSummary is a search-result row for one attraction
	KindAttractionSummary RecordKind = "attraction_summary"
	// KindAttractionDetail is the detail-page record for one attraction
	KindAttractionDetail RecordKind = "attraction_detail"
	// KindCommentPage is one page of review comments
	KindCommentPage RecordKind = "comment_page"
)

// Category is one comment partition on the detail page. Name keys checkpoints
// and output files; Label is the on-page tag text a browser fetcher clicks;
// TagID selects the partition on the comment API.
type Category struct {
	Name  string
	Label string
	TagID int
}

// Categories is the fixed processing order for comment partitions. The order
// matters: checkpoints record the last category reached and resumption skips
// everything before it.
var Categories = []Category{
	{Name: "all", Label: "全部", TagID: 0},
	{Name: "positive", Label: "好评", TagID: 1},
	{Name: "after", Label: "消费后评价", TagID: -22},
	{Name: "negative", Label: "差评", TagID: -12},
}

// CategoryByName returns the category with the given name, or false
func CategoryByName(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryIndex returns the position of name in the fixed order, or -1
func CategoryIndex(name string) int {
	for i, c := range Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// AttractionRecord holds the normalized detail-page fields for one target.
// Every field is optional; absent source fields stay empty.
type AttractionRecord struct {
	Name          string
	Grade         string
	Heat          string
	Score         string
	Address       string
	CommentsTotal string
	PositiveTotal string
	AfterTotal    string
	NegativeTotal string
}

// AttractionHeader is the column order for attraction summary destinations
var AttractionHeader = []string{
	"attraction_name",
	"attraction_grade",
	"attraction_heat",
	"attraction_score",
	"attraction_address",
	"comments_total",
	"positive_comments",
	"after_consumption_comments",
	"negative_comments",
}

// Row renders the record in AttractionHeader order
func (r AttractionRecord) Row() []string {
	return []string{
		r.Name,
		r.Grade,
		r.Heat,
		r.Score,
		r.Address,
		r.CommentsTotal,
		r.PositiveTotal,
		r.AfterTotal,
		r.NegativeTotal,
	}
}

// CommentRecord holds one normalized review comment. Many source fields are
// optional and independently defaulted during extraction.
type CommentRecord struct {
	Username     string `json:"username"`
	Score        string `json:"score,omitempty"`
	SceneryScore string `json:"scenery_score,omitempty"`
	FunScore     string `json:"fun_score,omitempty"`
	ValueScore   string `json:"value_score,omitempty"`
	Content      string `json:"content"`
	Date         string `json:"date,omitempty"`
	UsefulCount  string `json:"useful_count,omitempty"`
	ReplyCount   string `json:"reply_count,omitempty"`
	TouristType  string `json:"tourist_type,omitempty"`
	IPLocation   string `json:"user_ip,omitempty"`
	Duration     string `json:"time_duration,omitempty"`
	ImageCount   string `json:"image_count,omitempty"`
}

// CommentHeader is the column order for comment destinations
var CommentHeader = []string{
	"username",
	"comment_score",
	"scenery_score",
	"fun_score",
	"value_score",
	"comment_content",
	"comment_time",
	"useful_count",
	"reply_count",
	"tourist_type",
	"user_ip",
	"time_duration",
	"image_count",
}

// Row renders the record in CommentHeader order
func (r CommentRecord) Row() []string {
	return []string{
		r.Username,
		r.Score,
		r.SceneryScore,
		r.FunScore,
		r.ValueScore,
		r.Content,
		r.Date,
		r.UsefulCount,
		r.ReplyCount,
		r.TouristType,
		r.IPLocation,
		r.Duration,
		r.ImageCount,
	}
}

// SummaryRecord is one search result row
type SummaryRecord struct {
	ID           string
	Name         string
	CommentCount string
	CommentScore string
	District     string
	SightLevel   string
	HeatScore    string
	DetailURL    string
}
