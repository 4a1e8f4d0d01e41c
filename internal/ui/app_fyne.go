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
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gocatalog/internal/assets"
	"gocatalog/internal/crash"
	"gocatalog/internal/domain"
	"gocatalog/internal/version"
	"gocatalog/internal/workspace"
)

// variantTheme pins the default theme to one variant.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t variantTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.variant)
}

// themeFor returns nil for "system" so the OS preference applies.
func themeFor(name string) fyne.Theme {
	switch strings.ToLower(name) {
	case "light":
		return variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantLight}
	case "dark":
		return variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantDark}
	}
	return nil
}

func imageFilter() fstorage.FileFilter {
	exts := make([]string, 0, 2*len(assets.Extensions))
	for _, e := range assets.Extensions {
		exts = append(exts, e, strings.ToUpper(e))
	}
	return fstorage.NewExtensionFileFilter(exts)
}

// Run opens the catalog editor window on ws and blocks until it is closed.
func Run(ws *workspace.Workspace, opt Options) error {
	if ws == nil {
		return errors.New("no catalog open")
	}
	defer crash.Recover(&crash.Target{BackupDir: ws.Store.BackupDir(), Snapshot: ws.Service.Snapshot})

	ed := newEditor(ws)
	l := ed.log
	l.Info("starting UI", slog.String("root", ws.Layout.Root))

	fyneApp := app.NewWithID("gocatalog")
	if th := themeFor(opt.Theme); th != nil {
		fyneApp.Settings().SetTheme(th)
	}
	w := fyneApp.NewWindow("GoCatalog")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1100), 800)
	winH := max(prefs.IntWithFallback("window.height", 720), 560)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Prêt")
	count := widget.NewLabel("")

	// Form
	name := widget.NewEntry()
	name.SetPlaceHolder("Nom du produit")
	price := widget.NewEntry()
	price.SetPlaceHolder("Prix en " + domain.Currency)
	category := widget.NewSelect(slices.Clone(domain.Categories), nil)
	rating := widget.NewSelect(ratingOptions, nil)
	badge := widget.NewSelect(badgeOptions(), nil)
	desc := widget.NewMultiLineEntry()
	desc.Wrapping = fyne.TextWrapWord
	desc.SetMinRowsVisible(4)

	preview := canvas.NewImageFromResource(theme.FileImageIcon())
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(assets.DefaultThumbSize, assets.DefaultThumbSize))
	imageLabel := widget.NewLabel("Aucune image")

	// current is the stored record behind the form; its image and icon carry
	// over when the form is saved without picking a new image.
	var current domain.Product

	formInput := func() domain.Input {
		in := domain.FromProduct(current)
		in.Name = name.Text
		in.Price = price.Text
		in.Category = category.Selected
		in.Rating = ratingFromOption(rating.Selected)
		in.Badge = badgeFromOption(badge.Selected)
		in.Description = desc.Text
		return in
	}

	showThumb := func(p domain.Product) {
		switch {
		case p.ImagePath == "":
			imageLabel.SetText("Aucune image")
		case assets.Exists(ws.Layout.Root, p.ImagePath):
			imageLabel.SetText(filepath.Base(p.ImagePath))
		default:
			imageLabel.SetText("Image manquante")
		}
		if p.Name == "" && p.ImagePath == "" {
			preview.File = ""
			preview.Resource = theme.FileImageIcon()
			preview.Refresh()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b, err := ws.Thumbnail(ctx, p, assets.DefaultThumbSize)
		if err != nil {
			l.Warn("preview failed", slog.Int("id", p.ID), slog.Any("err", err))
			return
		}
		preview.File = ""
		preview.Resource = fyne.NewStaticResource(fmt.Sprintf("thumb-%d.png", p.ID), b)
		preview.Refresh()
	}

	notify := func(ok bool, msg string) {
		status.SetText(msg)
		if !ok {
			dialog.ShowInformation("Attention", msg, w)
		}
	}

	// List
	list := widget.NewList(
		func() int { return len(ed.items) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if p, ok := ed.itemByIndex(int(i)); ok {
				o.(*widget.Label).SetText(rowText(p))
			}
		},
	)
	reload := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ed.refresh(ctx); err != nil {
			l.Error("list refresh failed", slog.Any("err", err))
			status.SetText("Recherche impossible.")
		}
		list.UnselectAll()
		list.Refresh()
		count.SetText(ed.countText())
	}

	var doSave, doDelete, clearForm func()
	saveBtn := widget.NewButtonWithIcon("Ajouter", theme.DocumentSaveIcon(), func() { doSave() })
	saveBtn.Importance = widget.HighImportance
	newBtn := widget.NewButtonWithIcon("Nouveau", theme.ContentAddIcon(), func() { clearForm() })
	deleteBtn := widget.NewButtonWithIcon("Supprimer", theme.DeleteIcon(), func() { doDelete() })
	deleteBtn.Importance = widget.DangerImportance

	fill := func(p domain.Product) {
		current = p
		name.SetText(p.Name)
		price.SetText(domain.FormatPrice(p.Price))
		switch {
		case p.Category == "":
			category.ClearSelected()
		case !slices.Contains(category.Options, p.Category):
			category.Options = append(category.Options, p.Category)
			category.SetSelected(p.Category)
		default:
			category.SetSelected(p.Category)
		}
		rating.SetSelected(fmt.Sprint(p.Rating))
		badge.SetSelected(optionFromBadge(p.BadgeText()))
		desc.SetText(p.Description)
		showThumb(p)
		saveBtn.SetText("Mettre à jour")
		deleteBtn.Enable()
	}

	clearForm = func() {
		ed.clear()
		current = domain.Product{}
		name.SetText("")
		price.SetText("")
		category.SetSelectedIndex(0)
		rating.SetSelected(fmt.Sprint(domain.DefaultRating))
		badge.SetSelected(noBadge)
		desc.SetText("")
		showThumb(current)
		saveBtn.SetText("Ajouter")
		deleteBtn.Disable()
		list.UnselectAll()
		w.Canvas().Focus(name)
	}

	doSave = func() {
		ok, msg := ed.save(formInput())
		notify(ok, msg)
		if ok {
			reload()
			clearForm()
		}
	}

	doDelete = func() {
		if ed.editingID == 0 {
			notify(false, msgNoSelection)
			return
		}
		dialog.ShowConfirm("Confirmer", fmt.Sprintf("Supprimer '%s' ?", current.Name), func(yes bool) {
			if !yes {
				return
			}
			ok, msg := ed.remove()
			notify(ok, msg)
			if ok {
				reload()
				clearForm()
			}
		}, w)
	}

	doExport := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		notify(ed.publish(ctx))
	}

	list.OnSelected = func(i widget.ListItemID) {
		row, ok := ed.itemByIndex(int(i))
		if !ok {
			return
		}
		p, err := ed.edit(row.ID)
		if err != nil {
			notify(false, msgNoSelection)
			return
		}
		fill(p)
	}

	pickImage := func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			if !assets.Supported(path) {
				notify(false, msgImageCopy)
				return
			}
			ed.pendingImage = path
			preview.Resource = nil
			preview.File = path
			preview.Refresh()
			imageLabel.SetText(filepath.Base(path))
			status.SetText("Image sélectionnée")
		}, w)
		open.SetFilter(imageFilter())
		open.Show()
	}
	imageBtn := widget.NewButtonWithIcon("Choisir une image…", theme.FolderOpenIcon(), pickImage)

	// Filters
	search := widget.NewEntry()
	search.SetPlaceHolder("Rechercher…")
	catFilter := widget.NewSelect(categoryFilterOptions(), nil)
	catFilter.SetSelected(allProducts)
	search.OnChanged = func(s string) {
		ed.setFilter(s, catFilter.Selected)
		reload()
	}
	catFilter.OnChanged = func(s string) {
		ed.setFilter(search.Text, s)
		reload()
	}
	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), reload)
	exportBtn := widget.NewButtonWithIcon("Exporter products.js", theme.UploadIcon(), doExport)

	form := widget.NewForm(
		widget.NewFormItem("Nom", name),
		widget.NewFormItem("Prix", price),
		widget.NewFormItem("Catégorie", category),
		widget.NewFormItem("Note", rating),
		widget.NewFormItem("Badge", badge),
		widget.NewFormItem("Description", desc),
	)
	bold := fyne.TextStyle{Bold: true}
	left := container.NewVBox(
		widget.NewLabelWithStyle("Produit", fyne.TextAlignLeading, bold),
		form,
		container.NewHBox(preview, container.NewVBox(imageLabel, imageBtn)),
		container.NewGridWithColumns(3, newBtn, saveBtn, deleteBtn),
	)
	filters := container.NewBorder(nil, nil, nil, refreshBtn, container.NewGridWithColumns(2, search, catFilter))
	right := container.NewBorder(
		container.NewVBox(container.NewHBox(widget.NewLabelWithStyle("Produits", fyne.TextAlignLeading, bold), count), filters),
		exportBtn, nil, nil, list)
	split := container.NewHSplit(container.NewVScroll(left), right)
	split.SetOffset(0.4)
	w.SetContent(container.NewBorder(nil, status, nil, nil, split))

	// Menu and shortcuts
	reindexItem := fyne.NewMenuItem("Reconstruire l'index", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := ws.Reindex(ctx); err != nil {
			l.Error("rebuild index failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Index reconstruit.")
	})
	catalogMenu := fyne.NewMenu("Catalogue",
		fyne.NewMenuItem("Nouveau", clearForm),
		fyne.NewMenuItem("Enregistrer", doSave),
		fyne.NewMenuItem("Supprimer…", doDelete),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exporter products.js", doExport),
		reindexItem,
	)
	aboutMenu := fyne.NewMenu("Aide", fyne.NewMenuItem("À propos", func() {
		dialog.ShowInformation("À propos", "GoCatalog "+version.String()+"\n"+ws.Layout.Root, w)
	}))
	w.SetMainMenu(fyne.NewMainMenu(catalogMenu, aboutMenu))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { clearForm() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { doSave() })
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyF5:
			reload()
		case fyne.KeyEscape:
			clearForm()
		}
	})

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	reload()
	clearForm()
	w.ShowAndRun()
	return nil
}
