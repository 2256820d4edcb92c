package ui

import "github.com/Vaishnavi-Hegde17/enginetwin/config"

// pageByName resolves a configured section name, defaulting to the overview.
func pageByName(name string) Page {
	for i, n := range pageNames {
		if n == name {
			return Page(i)
		}
	}
	return PageOverview
}

// saveDefaultPage persists the page shown at startup.
func saveDefaultPage(p Page) error {
	cfg := config.Load()
	cfg.Section = pageNames[p]
	return config.Save(cfg)
}
