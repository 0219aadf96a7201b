//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/syedzohaibshah/urdu-card-generator/internal/editor"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

// rangeSpec describes one slider of the property panel.
type rangeSpec struct {
	prop     scene.Property
	label    string
	min, max float64
	suffix   string
}

var ranges = []rangeSpec{
	{scene.PropFontSize, "Font size", 8, 120, "px"},
	{scene.PropRotation, "Rotation", -180, 180, "°"},
	{scene.PropLineSpacing, "Line spacing", 0, 50, "px"},
	{scene.PropWordSpacing, "Word spacing", 0, 50, "px"},
	{scene.PropShadowBlur, "Shadow blur", 0, 20, "px"},
	{scene.PropOpacity, "Opacity", 10, 100, "%"},
}

var fontWeights = []string{"300", "400", "600", "700"}

// propertyPanel mirrors the selected element. While syncing is set, widget
// callbacks caused by show are ignored so they do not write history.
type propertyPanel struct {
	ed      *editor.Editor
	syncing bool

	text   *widget.Entry
	family *widget.Select
	weight *widget.Select
	color  *widget.Entry
	align  *widget.RadioGroup
	shadow *widget.Entry
	sliders map[scene.Property]*widget.Slider
	values  map[scene.Property]*widget.Label
}

func newPropertyPanel() *propertyPanel {
	p := &propertyPanel{
		sliders: map[scene.Property]*widget.Slider{},
		values:  map[scene.Property]*widget.Label{},
	}
	p.text = widget.NewMultiLineEntry()
	p.text.SetMinRowsVisible(3)
	p.text.OnChanged = func(s string) {
		if p.syncing || p.ed == nil {
			return
		}
		// without a selection the box holds the text for the next insert
		if _, ok := p.ed.Selected(); !ok {
			p.ed.SetInsertText(s)
			return
		}
		p.setString(scene.PropText, s)
	}
	p.family = widget.NewSelect(textlayout.DefaultFamilies, func(s string) { p.setString(scene.PropFontFamily, s) })
	p.weight = widget.NewSelect(fontWeights, func(s string) { p.setString(scene.PropFontWeight, s) })
	p.color = widget.NewEntry()
	p.color.OnSubmitted = func(s string) { p.setString(scene.PropColor, s) }
	p.align = widget.NewRadioGroup([]string{string(scene.AlignRight), string(scene.AlignCenter), string(scene.AlignLeft)}, func(s string) {
		p.setString(scene.PropAlignment, s)
	})
	p.align.Horizontal = true
	p.shadow = widget.NewEntry()
	p.shadow.OnSubmitted = func(s string) { p.setString(scene.PropShadowColor, s) }

	for _, r := range ranges {
		r := r
		s := widget.NewSlider(r.min, r.max)
		s.Step = 1
		v := widget.NewLabel("")
		s.OnChanged = func(f float64) { v.SetText(fmt.Sprintf("%g%s", f, r.suffix)) }
		s.OnChangeEnded = func(f float64) {
			if p.syncing || p.ed == nil {
				return
			}
			p.report(p.ed.SetNumber(r.prop, f))
		}
		p.sliders[r.prop] = s
		p.values[r.prop] = v
	}
	return p
}

func (p *propertyPanel) bind(ed *editor.Editor) {
	p.ed = ed
	e, ok := ed.Selected()
	p.show(e, ok)
}

func (p *propertyPanel) setString(prop scene.Property, v string) {
	if p.syncing || p.ed == nil {
		return
	}
	p.report(p.ed.SetString(prop, v))
}

// report logs failed edits. Edits without a selection are ignored.
func (p *propertyPanel) report(err error) {
	if err != nil && !errors.Is(err, editor.ErrNoSelection) {
		fyne.LogError("property update", err)
	}
}

// show copies e into the widgets.
func (p *propertyPanel) show(e scene.TextElement, ok bool) {
	if !ok {
		return
	}
	p.syncing = true
	defer func() { p.syncing = false }()
	p.text.SetText(e.Text)
	p.family.SetSelected(e.FontFamily)
	p.weight.SetSelected(e.FontWeight)
	p.color.SetText(e.Color)
	p.align.SetSelected(string(e.Alignment))
	p.shadow.SetText(e.ShadowColor)
	nums := map[scene.Property]float64{
		scene.PropFontSize:    e.FontSize,
		scene.PropRotation:    float64(e.Rotation),
		scene.PropLineSpacing: e.LineSpacing,
		scene.PropWordSpacing: e.WordSpacing,
		scene.PropShadowBlur:  e.ShadowBlur,
		scene.PropOpacity:     e.Opacity,
	}
	for prop, v := range nums {
		p.sliders[prop].SetValue(v)
	}
}

func (p *propertyPanel) container() fyne.CanvasObject {
	form := widget.NewForm(
		widget.NewFormItem("Text", p.text),
		widget.NewFormItem("Font", p.family),
		widget.NewFormItem("Weight", p.weight),
		widget.NewFormItem("Color", p.color),
		widget.NewFormItem("Alignment", p.align),
		widget.NewFormItem("Shadow color", p.shadow),
	)
	for _, r := range ranges {
		form.Append(r.label, container.NewBorder(nil, nil, nil, p.values[r.prop], p.sliders[r.prop]))
	}
	return container.NewVBox(
		widget.NewLabelWithStyle("Properties", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
	)
}
