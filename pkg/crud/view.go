package crud

type Column struct {
	Name  string
	Label string
}

type Row struct {
	Key   string
	Label string
	Cells []string
}

type EditorField struct {
	Name    string
	Label   string
	Kind    FieldKind
	Value   string
	Options []string
}

type Editor struct {
	Creating bool
	Title    string
	Fields   []EditorField
}

type Confirm struct {
	Key    string
	Prompt string
}

// View is a render-ready snapshot of a controller: one page of rows plus the
// open dialog, if any.
type View struct {
	Resource   string
	Title      string
	Noun       string
	Columns    []Column
	Rows       []Row
	Page       int
	Pages      int
	Total      int
	Deletable  bool
	RowActions []string
	Editor     *Editor
	Confirm    *Confirm
	Pending    bool
}

// View renders page (1-based, clamped) of the collection snapshot.
func (c *Controller[T]) View(page int) View {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()

	v := View{
		Resource:   c.desc.Resource,
		Title:      c.translate(c.desc.Title),
		Noun:       c.translate(c.desc.Noun),
		Deletable:  c.desc.Deletable,
		RowActions: c.desc.RowActions,
		Pending:    s.Pending,
		Total:      len(s.Collection),
	}

	listFields := c.desc.ListFields()
	for _, f := range listFields {
		v.Columns = append(v.Columns, Column{Name: f.Name, Label: c.translate(f.Label)})
	}

	size := c.desc.PageSize
	if size <= 0 {
		size = len(s.Collection) + 1
	}
	v.Pages, v.Page = paginate(len(s.Collection), size, page)
	start := (v.Page - 1) * size
	end := start + size
	if end > len(s.Collection) {
		end = len(s.Collection)
	}
	for _, record := range s.Collection[start:end] {
		key, _ := c.desc.Key(record)
		row := Row{Key: key, Label: key, Cells: make([]string, 0, len(listFields))}
		if c.desc.Describe != nil {
			row.Label = c.desc.Describe(record)
		}
		for _, f := range listFields {
			row.Cells = append(row.Cells, f.Get(record))
		}
		v.Rows = append(v.Rows, row)
	}

	switch {
	case s.Mode == ModeEditing && s.Draft != nil:
		_, persisted := c.desc.Key(*s.Draft)
		title := "editor.create"
		if persisted {
			title = "editor.update"
		}
		editor := &Editor{Creating: !persisted, Title: c.translate(title, c.translate(c.desc.Noun))}
		for _, f := range c.desc.EditFields() {
			editor.Fields = append(editor.Fields, EditorField{
				Name:    f.Name,
				Label:   c.translate(f.Label),
				Kind:    f.Kind,
				Value:   f.Get(*s.Draft),
				Options: s.Options[f.Name],
			})
			if f.Kind == KindSelect {
				last := &editor.Fields[len(editor.Fields)-1]
				last.Options = withCurrent(last.Options, last.Value)
			}
		}
		v.Editor = editor
	case s.Mode == ModeConfirming && s.Target != nil:
		key, _ := c.desc.Key(*s.Target)
		name := key
		if c.desc.Describe != nil {
			name = c.desc.Describe(*s.Target)
		}
		v.Confirm = &Confirm{Key: key, Prompt: c.translate("confirm.delete", name)}
	}
	return v
}

func paginate(total, size, page int) (pages, current int) {
	pages = 1
	if total > size {
		pages = (total + size - 1) / size
	}
	current = page
	if current < 1 {
		current = 1
	}
	if current > pages {
		current = pages
	}
	return pages, current
}

// withCurrent keeps a stored value selectable even when it is no longer among
// the loaded choices, so submitting the editor unchanged does not blank it.
func withCurrent(options []string, current string) []string {
	if current == "" {
		return options
	}
	for _, o := range options {
		if o == current {
			return options
		}
	}
	out := make([]string, 0, len(options)+1)
	out = append(out, current)
	return append(out, options...)
}
