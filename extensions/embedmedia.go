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

package extensions

import (
	"path"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"koala.blog/koala/html"
)

type mediaType int

const (
	mediaAudio mediaType = iota
	mediaVideo
)

var (
	videoExt = []string{"webm", "mp4", "mkv", "ogv", "mov"}
	audioExt = []string{"mp3", "ogg", "wav", "flac", "m4a"}
)

// Media is an image reference whose target is a video or audio file.
type Media struct {
	ast.BaseBlock
	Destination string
	Title       string
	ext         string
	medium      mediaType
}

var KindMedia = ast.NewNodeKind("Media")

func (n *Media) Kind() ast.NodeKind {
	return KindMedia
}

// Dump implements Node.Dump.
func (n *Media) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Destination": n.Destination}, nil)
}

func mediaFor(destination string) (mediaType, string, bool) {
	u := destination
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u), "."))
	switch {
	case slices.Contains(videoExt, ext):
		return mediaVideo, ext, true
	case slices.Contains(audioExt, ext):
		return mediaAudio, ext, true
	}
	return 0, "", false
}

type mediaTransformer struct{}

func (r mediaTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	var images []*ast.Image
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			images = append(images, img)
		}
		return ast.WalkContinue, nil
	})
	for _, img := range images {
		medium, ext, ok := mediaFor(string(img.Destination))
		if !ok {
			continue
		}
		m := &Media{
			Destination: string(img.Destination),
			Title:       string(img.Title),
			ext:         ext,
			medium:      medium,
		}
		parent := img.Parent()
		// A paragraph holding nothing but the media is replaced by it.
		if parent.Kind() == ast.KindParagraph && parent.ChildCount() == 1 {
			parent.Parent().ReplaceChild(parent.Parent(), parent, m)
			continue
		}
		parent.ReplaceChild(parent, img, m)
	}
}

// MediaHTMLRenderer is a renderer for video and audio nodes.
type MediaHTMLRenderer struct{}

// NewMediaHTMLRenderer returns a new MediaHTMLRenderer.
func NewMediaHTMLRenderer() renderer.NodeRenderer {
	return &MediaHTMLRenderer{}
}

// RegisterFuncs registers the renderer with the Goldmark renderer.
func (r *MediaHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMedia, r.renderMedia)
}

func (r *MediaHTMLRenderer) renderMedia(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Media)
	var el *html.HTMLElement
	mime := "audio/" + n.ext
	switch n.medium {
	case mediaVideo:
		el = html.NewHTMLElement("video",
			html.Attribute{Name: "controls", Value: ""},
			html.Attribute{Name: "loop", Value: ""},
			html.Attribute{Name: "muted", Value: ""},
		)
		mime = "video/" + n.ext
	default:
		el = html.NewHTMLElement("audio", html.Attribute{Name: "controls", Value: ""})
	}
	if n.Title != "" {
		el.SetAttribute("title", n.Title)
	}
	el.AppendNew("source",
		html.Attribute{Name: "src", Value: n.Destination},
		html.Attribute{Name: "type", Value: mime},
	)
	if err := el.Render(w); err != nil {
		return ast.WalkStop, err
	}
	if _, ok := node.Parent().(*ast.Document); ok {
		_ = w.WriteByte('\n')
	}
	return ast.WalkSkipChildren, nil
}

type mediaEmbed struct{}

func (e *mediaEmbed) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(mediaTransformer{}, priorityMediaTransformer),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewMediaHTMLRenderer(), priorityNodeRenderer),
		),
	)
}

// EmbedMedia renders ![](clip.mp4) and ![](song.mp3) as <video> and <audio> players.
func EmbedMedia() goldmark.Extender {
	return &mediaEmbed{}
}
