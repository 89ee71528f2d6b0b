package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SignalConfig holds the keyword lists driving deterministic signal
// extraction. Lists are configuration data, loaded once at process start;
// they are tuned for English/Dutch/French screenshots and should not be
// treated as general-purpose.
type SignalConfig struct {
	RelationshipLabels []string `yaml:"relationshipLabels"`
	AggressionTerms    []string `yaml:"aggressionTerms"`
	ProfanityTerms     []string `yaml:"profanityTerms"`
	LocationTerms      []string `yaml:"locationTerms"`
	TravelTerms        []string `yaml:"travelTerms"`
	NameStoplist       []string `yaml:"nameStoplist"`
	ShoutStoplist      []string `yaml:"shoutStoplist"`
}

// DefaultSignalConfig returns the built-in keyword lists.
// Terms ending in '*' are stem-matched; terms containing a space are
// phrase-matched; everything else matches as a whole word.
func DefaultSignalConfig() *SignalConfig {
	return &SignalConfig{
		RelationshipLabels: []string{
			// English
			"mom", "dad", "mother", "father", "brother", "sister", "husband",
			"wife", "boyfriend", "girlfriend", "bestie", "boss", "colleague", "ex",
			// Dutch
			"mama", "papa", "moeder", "vader", "broer", "zus", "vriend",
			"vriendin", "schat", "liefje", "baas", "collega",
			// French
			"maman", "papa", "mari", "femme", "copain", "copine", "frère",
			"soeur", "chéri", "chérie", "patron", "collègue",
		},
		AggressionTerms: []string{
			"hate*", "kill*", "attack*", "fight*", "punch*", "threat*",
			"shut up", "haat*", "slaan", "vecht*", "dood*", "zwijg",
			"frapp*", "tuer*", "menac*", "ta gueule", "bagarre",
		},
		ProfanityTerms: []string{
			"fuck*", "shit*", "bitch*", "asshole", "wtf", "damn",
			"kut*", "klote*", "godver*", "lul", "verdomme",
			"merde", "putain", "connard", "salop*", "bordel",
		},
		LocationTerms: []string{
			"station", "street", "straat", "rue", "avenue", "laan", "plein",
			"address", "adres", "adresse", "home", "thuis", "maison",
			"school", "office", "kantoor", "bureau", "airport", "luchthaven",
			"aéroport", "city", "stad", "ville",
		},
		TravelTerms: []string{
			"train", "trein", "bus", "tram", "metro", "flight", "vlucht",
			"vol", "route", "trip", "reis", "voyage", "ticket", "platform",
			"perron", "spoor", "gare", "departure", "vertrek", "départ",
			"arrival", "aankomst", "arrivée",
		},
		NameStoplist: []string{
			"OK", "Send", "Sent", "Delivered", "Read", "Seen", "Typing",
			"Online", "Today", "Yesterday", "Now", "Message", "Messages",
			"Photo", "Video", "Camera", "Search", "Home", "Menu", "Settings",
			"Reply", "Forward", "Edit", "Delete", "Cancel", "Battery",
			"Charging", "Missed Call", "Voice Message", "New Message",
			"Last Seen", "Group Info", "Mute", "Archive",
		},
		// Belgian transit operators and common screenshot UI tokens that read
		// as shouting but are not.
		ShoutStoplist: []string{
			"NMBS", "SNCB", "STIB", "MIVB", "LIJN", "THALYS", "EUROSTAR",
			"WIFI", "GSM", "HTTP", "HTTPS", "ASAP", "INFO", "MENU", "HOME",
			"SEND", "STOP", "JPEG", "HEIC",
		},
	}
}

// LoadSignalConfig returns the defaults, overridden by the YAML file at path
// when one is given. Missing lists in the file keep their defaults.
func LoadSignalConfig(path string) (*SignalConfig, error) {
	cfg := DefaultSignalConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signals config %s: %w", path, err)
	}
	var override SignalConfig
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse signals config %s: %w", path, err)
	}
	if len(override.RelationshipLabels) > 0 {
		cfg.RelationshipLabels = override.RelationshipLabels
	}
	if len(override.AggressionTerms) > 0 {
		cfg.AggressionTerms = override.AggressionTerms
	}
	if len(override.ProfanityTerms) > 0 {
		cfg.ProfanityTerms = override.ProfanityTerms
	}
	if len(override.LocationTerms) > 0 {
		cfg.LocationTerms = override.LocationTerms
	}
	if len(override.TravelTerms) > 0 {
		cfg.TravelTerms = override.TravelTerms
	}
	if len(override.NameStoplist) > 0 {
		cfg.NameStoplist = override.NameStoplist
	}
	if len(override.ShoutStoplist) > 0 {
		cfg.ShoutStoplist = override.ShoutStoplist
	}
	return cfg, nil
}
