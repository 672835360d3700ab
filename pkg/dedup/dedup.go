package dedup

import (
	"context"
	"sync"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/logging"
)

// Deduplicator resolves a batch of candidate records into canonical records.
// Construct one per batch with New; a Deduplicator must not be shared across
// goroutines because duplicate detection and index registration are a single
// check-then-insert step.
type Deduplicator struct {
	opts    options
	indexes *indexes
	stats   Stats
}

// Stats summarizes one deduplication run.
type Stats struct {
	Input            int // candidate records received
	IndexDuplicates  int // records folded in by the index pass
	SimilarityMerges int // records folded in by the similarity pass
	Output           int // canonical records returned
}

// New creates a Deduplicator.
func New(opts ...Option) *Deduplicator {
	return &Deduplicator{
		opts:    newOptions(opts...),
		indexes: newIndexes(),
	}
}

// Deduplicate runs both passes over the batch and returns the canonical
// records. Input records are never mutated; canonical records start as deep
// copies of their first-seen representative. Indices are reset at the start
// of every call, so the same Deduplicator may process independent batches
// sequentially.
func (d *Deduplicator) Deduplicate(ctx context.Context, records []catalogs.Server) []catalogs.Server {
	logger := logging.FromContext(ctx)
	d.indexes = newIndexes()
	d.stats = Stats{Input: len(records)}

	unique := make([]*catalogs.Server, 0, len(records))
	for i := range records {
		record := &records[i]
		if existing, kind := d.indexes.match(record); existing != nil {
			d.stats.IndexDuplicates++
			logger.Debug().
				Str("name", record.Name).
				Str("registry", record.RegistrySource.String()).
				Str("matched_by", kind.String()).
				Msg("Merging duplicate record")
			MergeInto(existing, record)
			continue
		}

		canonical := record.Copy()
		d.indexes.add(canonical)
		unique = append(unique, canonical)
	}

	logger.Info().
		Int("input", len(records)).
		Int("unique", len(unique)).
		Int("duplicates", d.stats.IndexDuplicates).
		Msg("Index pass complete")

	final := d.mergeSimilar(unique)
	d.stats.Output = len(final)

	logger.Info().
		Int("final", len(final)).
		Int("similarity_merges", d.stats.SimilarityMerges).
		Msg("Deduplication complete")

	out := make([]catalogs.Server, len(final))
	for i, s := range final {
		out[i] = *s
	}
	return out
}

// Stats returns the counters from the most recent Deduplicate call.
func (d *Deduplicator) Stats() Stats {
	return d.stats
}

// mergeSimilar is the pass-two scan. Each not-yet-grouped record anchors a
// scan over the records after it; everything highly similar to the anchor
// forms a group, merged into the group's most complete member. Grouping is
// by direct similarity to the anchor, so output can depend on input order
// when three-way similarity is not transitive.
func (d *Deduplicator) mergeSimilar(servers []*catalogs.Server) []*catalogs.Server {
	pairs := d.similarPairs(servers)

	processed := make([]bool, len(servers))
	out := make([]*catalogs.Server, 0, len(servers))

	for i, anchor := range servers {
		if processed[i] {
			continue
		}
		processed[i] = true

		var group []int
		for j := i + 1; j < len(servers); j++ {
			if processed[j] {
				continue
			}
			if pairs.similar(i, j) {
				group = append(group, j)
			}
		}

		if len(group) == 0 {
			out = append(out, anchor)
			continue
		}

		members := make([]*catalogs.Server, 0, len(group)+1)
		members = append(members, anchor)
		for _, j := range group {
			members = append(members, servers[j])
			processed[j] = true
		}

		survivor := mostComplete(members)
		for _, m := range members {
			if m != survivor {
				MergeInto(survivor, m)
			}
		}
		out = append(out, survivor)
		d.stats.SimilarityMerges += len(group)
	}

	return out
}

// mostComplete returns the group member with the highest completeness
// score; ties keep the earliest member.
func mostComplete(members []*catalogs.Server) *catalogs.Server {
	best := members[0]
	bestScore := CompletenessScore(best)
	for _, m := range members[1:] {
		if score := CompletenessScore(m); score > bestScore {
			best = m
			bestScore = score
		}
	}
	return best
}

// pairSet records which (i, j) pairs are highly similar. When nil, pairs
// are evaluated lazily during the sequential scan.
type pairSet struct {
	n   int
	set map[[2]int]struct{}

	servers []*catalogs.Server
}

func (p *pairSet) similar(i, j int) bool {
	if p.set == nil {
		return HighlySimilar(p.servers[i], p.servers[j])
	}
	_, ok := p.set[[2]int{i, j}]
	return ok
}

// similarPairs precomputes the pairwise similarity matrix across worker
// goroutines when parallel similarity is enabled. The pairwise checks are
// pure, so precomputing them and applying the grouping afterwards yields
// the same result as the sequential scan.
func (d *Deduplicator) similarPairs(servers []*catalogs.Server) *pairSet {
	workers := d.opts.similarityWorkers
	if workers <= 1 || len(servers) < 2 {
		return &pairSet{n: len(servers), servers: servers}
	}

	var (
		mu  sync.Mutex
		set = make(map[[2]int]struct{})
		wg  sync.WaitGroup
	)

	anchors := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range anchors {
				var local [][2]int
				for j := i + 1; j < len(servers); j++ {
					if HighlySimilar(servers[i], servers[j]) {
						local = append(local, [2]int{i, j})
					}
				}
				if len(local) > 0 {
					mu.Lock()
					for _, p := range local {
						set[p] = struct{}{}
					}
					mu.Unlock()
				}
			}
		}()
	}

	for i := range servers {
		anchors <- i
	}
	close(anchors)
	wg.Wait()

	return &pairSet{n: len(servers), set: set, servers: servers}
}
