package report

import (
	"bytes"
	"fmt"
	"io"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/scrollgrab/pkg/models"
)

// writeMarkdown renders the HTML report and converts it, so both formats
// always carry the same content
func writeMarkdown(w io.Writer, run *models.Run) error {
	var page bytes.Buffer
	if err := writeHTML(&page, run); err != nil {
		return err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("style", "title")

	// Long media URLs make unreadable link text; show the host and path tail
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}
			str := fmt.Sprintf("[%s](%s)", shortLabel(href), href)
			return &str
		},
	})

	out, err := converter.ConvertString(page.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
