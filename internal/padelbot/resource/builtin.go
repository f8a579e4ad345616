package resource

import "fmt"

var builtin = map[string][]byte{
	"texts/rules": []byte(TextRulesMsg),
	"texts/help":  []byte(TextHelpMsg),
	"media/logo":  []byte(Graffiti),
}

// BuiltinLoader serves the resources compiled into the binary. It stands in
// for the origin when the bot runs fully offline.
func BuiltinLoader(name string) ([]byte, error) {
	body, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", name)
	}

	return body, nil
}
