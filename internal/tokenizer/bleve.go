package tokenizer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// Name is the registry name of the exact-match tokenizer and of the analyzer
// built on it.
const Name = "rawlower"

func init() {
	err := registry.RegisterTokenizer(Name, constructor)
	if err != nil {
		panic(err)
	}
}

func constructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return NewBleveTokenizer(ExactMatch{}), nil
}

// BleveTokenizer adapts a Tokenizer to bleve's analysis interface.
type BleveTokenizer struct {
	inner Tokenizer
}

// NewBleveTokenizer wraps t for use in a bleve analyzer.
func NewBleveTokenizer(t Tokenizer) *BleveTokenizer {
	return &BleveTokenizer{inner: t}
}

// Tokenize implements analysis.Tokenizer. bleve positions are 1-based.
func (b *BleveTokenizer) Tokenize(input []byte) analysis.TokenStream {
	tokens := b.inner.Tokenize(string(input))
	stream := make(analysis.TokenStream, 0, len(tokens))
	for _, t := range tokens {
		stream = append(stream, &analysis.Token{
			Term:     []byte(t.Text),
			Start:    t.Start,
			End:      t.End,
			Position: t.Position + 1,
			Type:     analysis.AlphaNumeric,
		})
	}
	return stream
}
