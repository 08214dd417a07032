package upstream

// Alias tables list, in priority order, the keys tried for each normalized
// field. Dotted keys walk nested objects. Upstream payload shapes are not a
// fixed contract, so these are data, not logic.

// ChatAliases drives chat reply normalization.
type ChatAliases struct {
	Envelope     []string
	ReplyText    []string
	QuickReplies []string
	ChipText     []string
	Courses      []string
	Promotions   []string
}

var DefaultChatAliases = ChatAliases{
	Envelope: []string{"data", "result", "payload"},
	ReplyText: []string{
		"response", "reply", "message", "text", "answer", "output",
		"assistantText", "assistant.text", "responseText", "ui.response", "data.response",
	},
	QuickReplies: []string{
		"quickReplies", "quick_replies", "suggestions", "chips", "quickReplyChips", "ui.quickReplies",
	},
	ChipText:   []string{"text", "label", "value"},
	Courses:    []string{"courses", "courseRecommendations", "recommendations.courses", "cards.courses", "ui.courses"},
	Promotions: []string{"promotions", "promotionCards", "recommendations.promotions", "cards.promotions", "ui.promotions"},
}

// CatalogAliases drives course catalog item extraction.
type CatalogAliases struct {
	Items    []string
	Name     []string
	SourceID []string
}

var DefaultCatalogAliases = CatalogAliases{
	Items:    []string{"items", "data", "results"},
	Name:     []string{"name", "title", "course_name", "courseName", "public_course_name"},
	SourceID: []string{"_id", "id", "courseId", "slug"},
}

// FallbackQuickReplies are offered when the chat backend asks the user to
// pick a category but sends no chips.
var FallbackQuickReplies = []string{
	"Microsoft Excel",
	"Power BI",
	"Microsoft SQL Server",
	"Power Automate",
	"Power Apps",
	"Canva",
	"Generative AI",
	"Web Developer",
	"Data Analyst",
}

// CategoryPromptPhrases mark a reply that asks the user to choose a category.
var CategoryPromptPhrases = []string{
	"เลือกหมวดหมู่",
	"หมวดหมู่ที่สนใจ",
	"สนใจเรียนด้านไหน",
	"choose a category",
	"pick a category",
}
