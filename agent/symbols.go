package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync/ghostfolio"
	"google.golang.org/genai"
)

// Model is the Gemini model of the experts.
var Model = "gemini-2.5-pro"

// Lookuper searches symbols known to Ghostfolio.
type Lookuper interface {
	Lookup(ctx context.Context, query string) ([]ghostfolio.Symbol, error)
}

// NewResearcher returns the expert searching the web.
func NewResearcher() *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is a financial researcher, aware of funds, companies and the markets they trade on.
		Ask the Researcher to find the ISIN, the issuer or the Yahoo Finance ticker of an asset.`,
		ModelName: Model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a financial researcher. Leverage Google Search to ground every assertion.
			Employee savings funds (FCPE) often have no public ticker: say so instead of guessing.
			`}}},
		},
	}
}

// NewLookup returns the function searching Ghostfolio symbols.
func NewLookup(lookup Lookuper) *Func {
	const name = "GhostfolioLookup"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: "GhostfolioLookup searches the symbols Ghostfolio can price, by name, ISIN or ticker.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {Type: genai.TypeString, Description: "The name, ISIN or ticker to search."},
				},
				Required: []string{"query"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "One line per matching symbol: symbol, name, currency and data source.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			query, ok := args["query"].(string)
			if !ok {
				return errorResponse(id, name, fmt.Errorf("invalid query type got %T, expected string", args["query"]))
			}
			symbols, err := lookup.Lookup(ctx, query)
			if err != nil {
				return errorResponse(id, name, err)
			}
			var lines []string
			for _, s := range symbols {
				lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", s.Symbol, s.Name, s.Currency, s.DataSource))
			}
			if len(lines) == 0 {
				lines = append(lines, "no match")
			}
			return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"output": strings.Join(lines, "\n")}}
		},
	}
}

// NewSymbolist returns the expert in charge of the suggestions. It can ask
// researcher and, if lookup is not nil, search Ghostfolio.
func NewSymbolist(researcher *Expert, lookup Lookuper) *Expert {
	lib := []Function{researcher}
	if lookup != nil {
		lib = append(lib, NewLookup(lookup))
	}
	return &Expert{
		Name:      "Symbolist",
		ModelName: Model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You map asset names, as a brokerage or savings platform displays them, to Yahoo Finance symbols.
			Use the Tools: ask the Researcher about the asset, then check that Ghostfolio knows the symbol.
			Answer with a single JSON object mapping each asset name, verbatim, to its symbol.
			Leave out the assets you are not sure about. Do not add any other text.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// SuggestSymbols returns the Yahoo Finance symbol of each of names the
// model is confident about. lookup may be nil.
func SuggestSymbols(ctx context.Context, client *genai.Client, lookup Lookuper, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}
	researcher := NewResearcher()
	symbolist := NewSymbolist(researcher, lookup)
	if err := errors.Join(researcher.Start(ctx, client), symbolist.Start(ctx, client)); err != nil {
		return nil, err
	}

	var question strings.Builder
	question.WriteString("Find the Yahoo Finance symbol of the following assets:\n")
	for _, name := range names {
		fmt.Fprintf(&question, "- %s\n", name)
	}
	content, err := symbolist.Ask(ctx, &genai.Part{Text: question.String()})
	if err != nil {
		return nil, err
	}
	return parseSuggestions(text(content), names)
}

// parseSuggestions reads the JSON object of an answer, possibly fenced in
// a code block. Names that were not asked for and empty symbols are dropped.
func parseSuggestions(answer string, names []string) (map[string]string, error) {
	start, end := strings.Index(answer, "{"), strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no suggestion in answer %q", answer)
	}
	var all map[string]string
	if err := json.Unmarshal([]byte(answer[start:end+1]), &all); err != nil {
		return nil, fmt.Errorf("cannot decode suggestions: %w", err)
	}
	asked := make(map[string]bool, len(names))
	for _, name := range names {
		asked[name] = true
	}
	suggestions := make(map[string]string)
	for name, symbol := range all {
		symbol = strings.TrimSpace(symbol)
		if !asked[name] || symbol == "" {
			log.Debug("drop suggestion", "name", name, "symbol", symbol)
			continue
		}
		suggestions[name] = symbol
	}
	return suggestions, nil
}
