///////////////////////////////////////////////////////////////////////////////////////////////////
//                                                                                               //
//                                                                                               //
//         oooooo   oooooo     oooo           oooooo   oooooo     oooo         .o8               //
//          `888.    `888.     .8'             `888.    `888.     .8'         "888               //
//           `888.   .8888.   .8' oooo    ooo   `888.   .8888.   .8' .ooooo.   888oooo.          //
//            `888  .8'`888. .8'   `88.  .8'     `888  .8'`888. .8' d88' `88b  d88' `88b         //
//             `888.8'  `888.8'     `88..8'       `888.8'  `888.8'  888ooo888  888   888         //
//              `888'    `888'       `888'         `888'    `888'   888    .o  888   888         //
//               `8'      `8'         .8'           `8'      `8'    `Y8bod8P'  `Y8bod8P'         //
//                                .o..P'                                                         //
//                                `Y8P'                                                          //
//                                                                                               //
//                                                                                               //
//                              Copyright (C) 2024  Wyatt Sheffield                              //
//                                                                                               //
//                 This program is free software: you can redistribute it and/or                 //
//                 modify it under the terms of the GNU General Public License as                //
//                 published by the Free Software Foundation, either version 3 of                //
//                      the License, or (at your option) any later version.                      //
//                                                                                               //
//                This program is distributed in the hope that it will be useful,                //
//                 but WITHOUT ANY WARRANTY; without even the implied warranty of                //
//                 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the                 //
//                          GNU General Public License for more details.                         //
//                                                                                               //
//                   You should have received a copy of the GNU General Public                   //
//                         License along with this program.  If not, see                         //
//                                <https://www.gnu.org/licenses/>.                               //
//                                                                                               //
//                                                                                               //
///////////////////////////////////////////////////////////////////////////////////////////////////

package main

import (
	"bytes"
	"encoding/json"
	"time"

	"koala.blog/koala/html"
	"koala.blog/koala/render"
)

// page is what a standalone document needs beyond the rendered body.
type page struct {
	Title  string
	Styles []string
	Result *render.Result
}

func (p *page) frontmatter(key string) string {
	if p.Result.Frontmatter == nil {
		return ""
	}
	v, _ := p.Result.Frontmatter.String(key)
	return v
}

func formatDate(value string) (string, bool) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return value, false
	}
	return d.Format("Jan _2, 2006"), true
}

func (p *page) structuredData() string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": p.Title,
		"keywords": p.Result.Tags,
	}
	if author := p.frontmatter("author"); author != "" {
		data["author"] = map[string]any{"@type": "Person", "name": author}
	}
	if date := p.frontmatter("date"); date != "" {
		data["datePublished"] = date
	}
	if p.Result.Excerpt != "" {
		data["description"] = p.Result.Excerpt
	}
	jsonld, _ := json.MarshalIndent(data, "", "    ")
	return string(jsonld)
}

func (p *page) head() *html.HTMLElement {
	head := html.NewHTMLElement("head")
	head.AppendNew("meta", html.Attribute{Name: "charset", Value: "utf-8"})
	head.AppendNew("meta",
		html.Attribute{Name: "name", Value: "viewport"},
		html.Attribute{Name: "content", Value: "width=device-width, initial-scale=1"},
	)
	if p.Result.Excerpt != "" {
		head.AppendNew("meta",
			html.Attribute{Name: "name", Value: "description"},
			html.Attribute{Name: "content", Value: p.Result.Excerpt},
		)
	}
	head.AppendNew("title").AppendText(p.Title)
	for _, css := range p.Styles {
		head.AppendNew("style").AppendRaw(css)
	}
	head.AppendNew("script", html.Attribute{Name: "type", Value: "application/ld+json"}).AppendRaw(p.structuredData())
	return head
}

func (p *page) articleHeader(article *html.HTMLElement) {
	header := article.AppendNew("header")
	header.AppendNew("h1", html.Attribute{Name: "id", Value: "title"}).AppendText(p.Title)
	date, author := p.frontmatter("date"), p.frontmatter("author")
	if date == "" && author == "" {
		return
	}
	info := header.AppendNew("div", html.Class("post-info"))
	if date != "" {
		text, ok := formatDate(date)
		t := info.AppendNew("time", html.Attribute{Name: "id", Value: "publication-date"})
		if ok {
			t.SetAttribute("datetime", date)
		}
		t.AppendText(text)
	}
	if author != "" {
		info.AppendNew("span", html.Attribute{Name: "id", Value: "author"}).AppendText(author)
	}
}

func (p *page) body() *html.HTMLElement {
	body := html.NewHTMLElement("body")
	if p.Result.TOC != "" {
		body.AppendRaw(p.Result.TOC)
	}
	article := body.AppendNew("article")
	p.articleHeader(article)
	article.AppendRaw(p.Result.HTML)
	if len(p.Result.Tags) > 0 {
		tagContainer := article.AppendNew("div", html.Class("tag-container"))
		tagContainer.AppendText("Tags")
		tagList := tagContainer.AppendNew("div", html.Class("tag-list"))
		for _, tag := range p.Result.Tags {
			tagList.AppendNew("span", html.Class("tag-link"), html.Data("tag", tag)).AppendText(tag)
		}
	}
	return body
}

// Build writes the complete HTML document.
func (p *page) Build() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	document := html.NewHTMLElement("html")
	document.Append(p.head())
	document.Append(p.body())
	if err := document.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
