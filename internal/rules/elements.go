package rules

type Element string

const (
	Rock      Element = "rock"
	Paper     Element = "paper"
	Scissors  Element = "scissors"
	Fire      Element = "fire"
	Water     Element = "water"
	Air       Element = "air"
	Lizard    Element = "lizard"
	Gun       Element = "gun"
	Lightning Element = "lightning"
	Shield    Element = "shield"
)

type Mode string

const (
	ModeClassic  Mode = "classic"
	ModeExtended Mode = "extended"
	ModeFull     Mode = "full"
)

// Modes lists every mode a match can be created with.
var Modes = []Mode{ModeClassic, ModeExtended, ModeFull}

type Info struct {
	ID          Element
	Emoji       string
	Beats       []Element
	Description string
}

// AllElements is the display order used by the full mode and the catalog.
var AllElements = []Element{Rock, Paper, Scissors, Fire, Water, Air, Lizard, Gun, Lightning, Shield}

var catalog = map[Element]Info{
	Rock: {
		ID:          Rock,
		Emoji:       "🪨",
		Beats:       []Element{Scissors, Lizard, Fire},
		Description: "Crushes Scissors, Lizard, and Fire",
	},
	Paper: {
		ID:          Paper,
		Emoji:       "📄",
		Beats:       []Element{Rock, Air, Water},
		Description: "Covers Rock, Air, and Water",
	},
	Scissors: {
		ID:          Scissors,
		Emoji:       "✂️",
		Beats:       []Element{Paper, Air, Lizard},
		Description: "Cuts Paper, Air, and Lizard",
	},
	Fire: {
		ID:          Fire,
		Emoji:       "🔥",
		Beats:       []Element{Paper, Scissors, Air, Lizard},
		Description: "Burns Paper, Scissors, Air, and Lizard",
	},
	Water: {
		ID:          Water,
		Emoji:       "💧",
		Beats:       []Element{Fire, Rock, Lizard, Gun},
		Description: "Extinguishes Fire, Erodes Rock, Drowns Lizard, Rusts Gun",
	},
	Air: {
		ID:          Air,
		Emoji:       "💨",
		Beats:       []Element{Fire, Rock, Water},
		Description: "Suffocates Fire, Erodes Rock, Evaporates Water",
	},
	Lizard: {
		ID:          Lizard,
		Emoji:       "🦎",
		Beats:       []Element{Paper, Air, Lightning},
		Description: "Eats Paper, Breathes Air, Grounds Lightning",
	},
	Gun: {
		ID:          Gun,
		Emoji:       "🔫",
		Beats:       []Element{Rock, Scissors, Fire, Lizard, Air, Lightning},
		Description: "Shoots everything except Water and Shield",
	},
	Lightning: {
		ID:          Lightning,
		Emoji:       "⚡",
		Beats:       []Element{Water, Scissors, Gun, Fire},
		Description: "Strikes Water, Scissors, Gun, and Fire",
	},
	Shield: {
		ID:          Shield,
		Emoji:       "🛡️",
		Beats:       []Element{Gun, Rock, Scissors, Lightning},
		Description: "Blocks Gun, Rock, Scissors, and Lightning",
	},
}

var modeElements = map[Mode][]Element{
	ModeClassic:  {Rock, Paper, Scissors},
	ModeExtended: {Rock, Paper, Scissors, Fire, Water},
	ModeFull:     AllElements,
}

// Curated flavor text keyed by (winner, loser).
var reasons = map[[2]Element]string{
	{Rock, Scissors}:      "Rock crushes Scissors!",
	{Rock, Lizard}:        "Rock crushes Lizard!",
	{Rock, Fire}:          "Rock smothers Fire!",
	{Paper, Rock}:         "Paper covers Rock!",
	{Paper, Air}:          "Paper catches Air!",
	{Paper, Water}:        "Paper absorbs Water!",
	{Scissors, Paper}:     "Scissors cuts Paper!",
	{Scissors, Air}:       "Scissors cuts through Air!",
	{Scissors, Lizard}:    "Scissors decapitates Lizard!",
	{Fire, Paper}:         "Fire burns Paper!",
	{Fire, Scissors}:      "Fire melts Scissors!",
	{Fire, Air}:           "Fire consumes Air!",
	{Fire, Lizard}:        "Fire roasts Lizard!",
	{Water, Fire}:         "Water extinguishes Fire!",
	{Water, Rock}:         "Water erodes Rock!",
	{Water, Lizard}:       "Water drowns Lizard!",
	{Water, Gun}:          "Water rusts Gun!",
	{Air, Fire}:           "Air suffocates Fire!",
	{Air, Rock}:           "Air erodes Rock!",
	{Air, Water}:          "Air evaporates Water!",
	{Lizard, Paper}:       "Lizard eats Paper!",
	{Lizard, Air}:         "Lizard breathes Air!",
	{Lizard, Lightning}:   "Lizard grounds Lightning!",
	{Gun, Rock}:           "Gun shatters Rock!",
	{Gun, Scissors}:       "Gun destroys Scissors!",
	{Gun, Fire}:           "Gun blows out Fire!",
	{Gun, Lizard}:         "Gun shoots Lizard!",
	{Gun, Air}:            "Gun pierces Air!",
	{Gun, Lightning}:      "Gun conducts Lightning!",
	{Lightning, Water}:    "Lightning electrifies Water!",
	{Lightning, Scissors}: "Lightning melts Scissors!",
	{Lightning, Gun}:      "Lightning magnetizes Gun!",
	{Lightning, Fire}:     "Lightning outshines Fire!",
	{Shield, Gun}:         "Shield blocks Gun!",
	{Shield, Rock}:        "Shield deflects Rock!",
	{Shield, Scissors}:    "Shield blocks Scissors!",
	{Shield, Lightning}:   "Shield grounds Lightning!",
}
