package confluence

// Wire types of the content REST API.

type space struct {
	Key string `json:"key"`
}

type version struct {
	Number int `json:"number"`
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type body struct {
	Storage storage `json:"storage"`
}

type ancestor struct {
	ID string `json:"id"`
}

type label struct {
	Prefix string `json:"prefix,omitempty"`
	Name   string `json:"name"`
}

type labelList struct {
	Results []label `json:"results"`
	Size    int     `json:"size"`
}

type metadata struct {
	Labels labelList `json:"labels"`
}

type content struct {
	ID        string     `json:"id,omitempty"`
	Type      string     `json:"type"`
	Status    string     `json:"status,omitempty"`
	Title     string     `json:"title"`
	Space     *space     `json:"space,omitempty"`
	Version   *version   `json:"version,omitempty"`
	Ancestors []ancestor `json:"ancestors,omitempty"`
	Body      *body      `json:"body,omitempty"`
	Metadata  *metadata  `json:"metadata,omitempty"`
}

type contentList struct {
	Results []content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
}

func (c content) labelNames() []string {
	if c.Metadata == nil {
		return nil
	}
	names := make([]string, 0, len(c.Metadata.Labels.Results))
	for _, l := range c.Metadata.Labels.Results {
		names = append(names, l.Name)
	}
	return names
}
