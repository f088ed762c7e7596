package weigher

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stemmer"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Keyword extraction ranks the terms of a document by how often they
        occur, after removing stop words and reducing each word to its stem.
        Bigrams capture short phrases such as machine learning or data science
        that carry more meaning than either word alone.`,
	"long": strings.Repeat(`Information retrieval systems combine tokenization,
        stemming, and stop word removal to normalize text into comparable terms.
        Term frequency weighting highlights the words a document repeats most,
        while length normalization keeps scores comparable between short and
        long documents. `, 20),
}

func benchWeigher(b *testing.B) *Weigher {
	b.Helper()
	stop, err := stopwords.ForLanguage("english")
	if err != nil {
		b.Fatal(err)
	}
	return New(stop, stemmer.New())
}

func BenchmarkWeigh(b *testing.B) {
	w := benchWeigher(b)
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = w.Weigh(text)
			}
		})
	}
}

func BenchmarkWeighParallel(b *testing.B) {
	w := benchWeigher(b)
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = w.Weigh(text)
		}
	})
}

func BenchmarkWeighVaryingSize(b *testing.B) {
	w := benchWeigher(b)
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "keyword extraction document ranking stemming "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = w.Weigh(text)
			}
		})
	}
}
