package model

import "fmt"

// Page kinds in render order.
const (
	PageCover          = "cover"
	PageSectionDivider = "section_divider"
	PageContent        = "content"
	PageClosing        = "closing"
)

// Layout templates for content pages.
const (
	LayoutOnePhoto = "1-photo"
	LayoutTwoPhoto = "2-photo"
	LayoutTextOnly = "text-only"
)

// PhotoSlot places one photo on a page.
type PhotoSlot struct {
	PhotoID     string `json:"photo_id"`
	ImagePath   string `json:"image_path"`
	Caption     string `json:"caption,omitempty"`
	NeedsReview bool   `json:"needs_review,omitempty"`
}

// TextBlock places session notes on a page.
type TextBlock struct {
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
}

// Page is one rendered page of the final document.
type Page struct {
	Number     int         `json:"number"`
	Kind       string      `json:"kind"`
	Layout     string      `json:"layout,omitempty"`
	SessionID  string      `json:"session_id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Subtitle   string      `json:"subtitle,omitempty"`
	Photos     []PhotoSlot `json:"photos,omitempty"`
	TextBlocks []TextBlock `json:"text_blocks,omitempty"`
}

// PagePlan is the stage-4 artifact consumed by the renderer.
type PagePlan struct {
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
	Pages []Page `json:"pages"`
}

// Validate checks the stage-4 artifact contract.
func (p *PagePlan) Validate() error {
	if len(p.Pages) == 0 {
		return fmt.Errorf("page plan: no pages")
	}
	if p.Pages[0].Kind != PageCover {
		return fmt.Errorf("page plan: first page is %q, want %q", p.Pages[0].Kind, PageCover)
	}
	for i, pg := range p.Pages {
		if pg.Number != i+1 {
			return fmt.Errorf("page plan: page %d numbered %d", i+1, pg.Number)
		}
		switch pg.Kind {
		case PageCover, PageSectionDivider, PageContent, PageClosing:
		default:
			return fmt.Errorf("page plan: page %d has unknown kind %q", pg.Number, pg.Kind)
		}
		if pg.Kind == PageContent {
			switch pg.Layout {
			case LayoutOnePhoto, LayoutTwoPhoto, LayoutTextOnly:
			default:
				return fmt.Errorf("page plan: page %d has unknown layout %q", pg.Number, pg.Layout)
			}
		}
	}
	return nil
}
