package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/matome/internal/cluster"
	"github.com/hyperjump/matome/internal/concepts"
	"github.com/hyperjump/matome/internal/similarity"
	"github.com/hyperjump/matome/internal/vector"
)

func corpusTexts(n int) ([]int64, []string) {
	ids := make([]int64, n)
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(i)
		texts[i] = fmt.Sprintf(
			"document %d covers topic%d and shared vocabulary about indexing search ranking term%d",
			i, i%20, i,
		)
	}
	return ids, texts
}

func BenchmarkVectorSearch(b *testing.B) {
	idx := vector.NewIndex(vector.Config{})
	ids, texts := corpusTexts(1000)
	if err := idx.AddBatch(ids, texts); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search("shared vocabulary ranking", 10, nil)
	}
}

func BenchmarkVectorAddBatch(b *testing.B) {
	ids, texts := corpusTexts(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx := vector.NewIndex(vector.Config{})
		_ = idx.AddBatch(ids, texts)
	}
}

func BenchmarkVectorIncrementalAdd(b *testing.B) {
	idx := vector.NewIndex(vector.Config{RebuildThreshold: 100})
	_ = idx.Add(0, "seed document establishing the vocabulary")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Add(int64(i+1), fmt.Sprintf("incremental document %d with vocabulary", i))
	}
}

func BenchmarkClusterAssign(b *testing.B) {
	e := cluster.NewEngine(cluster.Config{})
	for i := 0; i < 200; i++ {
		e.Assign(int64(i), []string{
			fmt.Sprintf("concept%d", i),
			fmt.Sprintf("concept%d", i+1),
			"shared",
		}, fmt.Sprintf("topic %d", i%50), "")
	}
	probe := []string{"concept42", "concept43", "shared"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Assign(int64(1000+i), probe, "topic 42", "")
	}
}

func BenchmarkJaccard(b *testing.B) {
	small := similarity.NewSet([]string{"python", "web", "backend", "api", "rest"})
	large := make([]string, 100)
	for i := range large {
		large[i] = fmt.Sprintf("term%d", i)
	}
	largeSet := similarity.NewSet(large)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = similarity.Jaccard(small, largeSet)
	}
}

func BenchmarkKeywordExtract(b *testing.B) {
	e := concepts.NewKeywordExtractor(8)
	ctx := context.Background()
	text := "Machine learning systems extract patterns from large corpora of text " +
		"and rank documents by relevance using term frequency statistics"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Extract(ctx, text)
	}
}
