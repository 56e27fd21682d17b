package storage

// Fixed storage key for the theme-mode preference.
const themeModeKey = "tms_theme_mode"

// Preferences exposes the small set of user preferences persisted client-side.
type Preferences struct {
	kv           KV
	defaultTheme string
}

func NewPreferences(kv KV, defaultTheme string) *Preferences {
	return &Preferences{kv: kv, defaultTheme: defaultTheme}
}

func (p *Preferences) ThemeMode() string {
	if v, ok := p.kv.Get(themeModeKey); ok && v != "" {
		return v
	}
	return p.defaultTheme
}

func (p *Preferences) SetThemeMode(mode string) {
	p.kv.Set(themeModeKey, mode)
}
