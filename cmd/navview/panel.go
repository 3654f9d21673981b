package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// panel is the control column on the right of the window.
type panel struct {
	status *widget.Text
	log    *widget.Text
	pause  *widget.Button
	agents *widget.List
}

func newTheme(face *ebtext.Face) *widget.Theme {
	return &widget.Theme{
		ListTheme: &widget.ListParams{
			EntryFace: face,
			EntryColor: &widget.ListEntryColor{
				Unselected:          color.White,
				Selected:            color.Black,
				DisabledUnselected:  color.Gray{Y: 128},
				DisabledSelected:    color.Gray{Y: 64},
				SelectingBackground: color.RGBA{200, 220, 255, 255},
				SelectedBackground:  color.RGBA{180, 200, 255, 255},
			},
			ScrollContainerImage: &widget.ScrollContainerImage{
				Idle: imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}),
				Mask: imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}),
			},
		},
		ButtonTheme: &widget.ButtonParams{
			Image: &widget.ButtonImage{
				Idle:    imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}),
				Hover:   imageui.NewNineSliceColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 255}),
				Pressed: imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}),
			},
			TextFace:  face,
			TextColor: &widget.ButtonTextColor{Idle: color.White},
		},
		SliderTheme: &widget.SliderParams{
			TrackImage: &widget.SliderTrackImage{
				Idle:  imageui.NewNineSliceColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 255}),
				Hover: imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255}),
			},
			HandleImage: &widget.ButtonImage{
				Idle:    imageui.NewNineSliceColor(color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 255}),
				Hover:   imageui.NewNineSliceColor(color.NRGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 255}),
				Pressed: imageui.NewNineSliceColor(color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 255}),
			},
		},
	}
}

func newPanel(v *viewer) (*ebitenui.UI, *panel) {
	ui := &ebitenui.UI{}
	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	ui.PrimaryTheme = newTheme(&face)
	theme := ui.PrimaryTheme
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	p := &panel{}

	column := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 16, Bottom: 16, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth, screenHeight),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionEnd,
				VerticalPosition:   widget.AnchorLayoutPositionCenter,
				StretchVertical:    true,
			}),
		),
	)

	column.AddChild(widget.NewText(
		widget.TextOpts.Text(v.sim.Scene().Name, &face, white),
	))
	p.status = widget.NewText(
		widget.TextOpts.Text("", &face, white),
	)
	column.AddChild(p.status)

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(label, &face, theme.ButtonTheme.TextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(panelWidth-24, 28)),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}
	p.pause = button("Pause", v.togglePause)
	column.AddChild(p.pause)
	column.AddChild(button("Regenerate", v.regenerate))
	column.AddChild(button("Switch strategy", v.cycleStrategy))
	column.AddChild(button("Copy route", v.copyPath))

	column.AddChild(widget.NewText(widget.TextOpts.Text("Agents", &face, white)))
	entries := make([]any, 0, len(v.sim.Agents()))
	for _, a := range v.sim.Agents() {
		entries = append(entries, a.Name)
	}
	p.agents = widget.NewList(
		widget.ListOpts.Entries(entries),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			name, _ := e.(string)
			return name
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			if name, ok := args.Entry.(string); ok {
				v.selectAgent(name)
			}
		}),
	)
	column.AddChild(p.agents)

	p.log = widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}),
	)
	column.AddChild(p.log)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	root.AddChild(column)
	ui.Container = root
	return ui, p
}

// refresh copies the viewer state into the widgets.
func (p *panel) refresh(v *viewer) {
	if p == nil {
		return
	}
	p.status.Label = statusText(v)
	if text := p.pause.Text(); text != nil {
		text.Label = "Pause"
		if v.paused {
			text.Label = "Resume"
		}
	}
	p.log.Label = strings.Join(v.log, "\n")
}

func statusText(v *viewer) string {
	graph := v.sim.Graph()
	lines := []string{
		fmt.Sprintf("strategy %s  t=%.1fs", v.sim.Strategy(), v.sim.Time()),
		fmt.Sprintf("%d nodes, %d accessible", graph.Len(), graph.Accessible()),
	}
	if a, ok := v.sim.Agent(v.selected); ok {
		lines = append(lines, fmt.Sprintf("%s: %s", a.Name, a.Follower.State()))
	}
	if v.paused {
		lines = append(lines, "paused")
	}
	if v.notice != "" {
		lines = append(lines, v.notice)
	}
	return strings.Join(lines, "\n")
}
