package dbginfo

import (
	"path/filepath"
	"sort"
	"strings"
)

// finalize computes derived addresses and indices once parsing is done.
// Info is read-only for the rest of its lifetime after this call.
func (in *Info) finalize() {
	for _, sp := range in.spans {
		if seg, ok := in.segs[sp.SegID]; ok {
			sp.AbsStart = seg.Start + uint16(sp.StartOff)
		}
	}

	in.spansByStart = make([]*Span, 0, len(in.spans))
	for _, sp := range in.spans {
		in.spansByStart = append(in.spansByStart, sp)
	}
	sort.Slice(in.spansByStart, func(i, j int) bool {
		return in.spansByStart[i].AbsStart < in.spansByStart[j].AbsStart
	})

	in.spanLines = make(map[int][]*Line)
	for _, l := range in.lines {
		for _, id := range l.SpanIDs {
			in.spanLines[id] = append(in.spanLines[id], l)
		}
	}

	in.spanScopes = make(map[int][]*Scope)
	for _, sc := range in.scopes {
		for _, id := range sc.SpanIDs {
			in.spanScopes[id] = append(in.spanScopes[id], sc)
		}
	}

	in.addrSymbol = make(map[uint16]*Symbol)
	for _, sym := range in.symbols {
		cur, exists := in.addrSymbol[sym.Addr]
		if !exists || preferSymbol(sym, cur) {
			in.addrSymbol[sym.Addr] = sym
		}
	}

	in.libraryFiles = make(map[int]bool)
	for _, m := range in.modules {
		if m.HasLib {
			in.libraryFiles[m.FileID] = true
		}
	}

	in.nameSymbol = make(map[string]*Symbol)
	for _, sym := range in.symbols {
		cur, exists := in.nameSymbol[sym.Name]
		if !exists || preferSymbol(sym, cur) {
			in.nameSymbol[sym.Name] = sym
		}
	}
}

// preferSymbol reports whether candidate should replace incumbent as the
// preferred symbol at a shared address: labels over equates, symbols tied
// to a segment over those without one.
func preferSymbol(candidate, incumbent *Symbol) bool {
	candIsLab := candidate.Type == "lab"
	incIsLab := incumbent.Type == "lab"
	if candIsLab != incIsLab {
		return candIsLab
	}
	if candidate.HasSegID != incumbent.HasSegID {
		return candidate.HasSegID
	}
	return false
}

// spansContaining returns every span whose half-open range contains addr,
// found via binary search on AbsStart followed by a linear containment
// filter -- the sorted-slice rendition the teacher's own range table falls
// back to underneath its radix-tree wrapper.
func (in *Info) spansContaining(addr uint16) []*Span {
	idx := sort.Search(len(in.spansByStart), func(i int) bool {
		return in.spansByStart[i].AbsStart > addr
	})
	var hits []*Span
	for i := idx - 1; i >= 0; i-- {
		sp := in.spansByStart[i]
		if uint32(sp.AbsStart)+uint32(sp.Size) <= uint32(addr) {
			continue
		}
		if sp.AbsStart <= addr {
			hits = append(hits, sp)
		}
	}
	return hits
}

// SymbolAt implements disasm.SymbolResolver: the preferred symbol defined
// at exactly that address, if any.
func (in *Info) SymbolAt(addr uint16) (string, bool) {
	sym, ok := in.addrSymbol[addr]
	if !ok {
		return "", false
	}
	return sym.Name, true
}

// LabelBefore implements disasm.SymbolResolver: a label (not an equate)
// defined at exactly addr-1.
func (in *Info) LabelBefore(addr uint16) (string, bool) {
	if addr == 0 {
		return "", false
	}
	sym, ok := in.addrSymbol[addr-1]
	if !ok || sym.Type != "lab" {
		return "", false
	}
	return sym.Name, true
}

// SymbolFor returns the preferred symbol at exactly addr.
func (in *Info) SymbolFor(addr uint16) (*Symbol, bool) {
	sym, ok := in.addrSymbol[addr]
	return sym, ok
}

// LineFor returns the "best" line for addr: among the spans containing it,
// sorted smallest first, the attached line set of the smallest span wins;
// within that set a type==1 (C) line wins, else the first one.
func (in *Info) LineFor(addr uint16) (*Line, bool) {
	lines := in.AllLinesFor(addr)
	if len(lines) == 0 {
		return nil, false
	}
	return lines[0], true
}

// AllLinesFor returns every line attached to a span containing addr,
// ordered most-specific (smallest span) first; within a span, a type==1
// line sorts before others.
func (in *Info) AllLinesFor(addr uint16) []*Line {
	spans := in.spansContaining(addr)
	sort.Slice(spans, func(i, j int) bool { return spans[i].Size < spans[j].Size })

	var out []*Line
	seen := map[*Line]bool{}
	for _, sp := range spans {
		lines := append([]*Line{}, in.spanLines[sp.ID]...)
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].Type == 1 && lines[j].Type != 1
		})
		for _, l := range lines {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	return out
}

// ScopesFor returns the scopes attached to the most specific span at addr
// that has any scope attachment at all.
func (in *Info) ScopesFor(addr uint16) []*Scope {
	spans := in.spansContaining(addr)
	sort.Slice(spans, func(i, j int) bool { return spans[i].Size < spans[j].Size })
	for _, sp := range spans {
		if scopes := in.spanScopes[sp.ID]; len(scopes) > 0 {
			return scopes
		}
	}
	return nil
}

// ScopeChain walks parentId upward from leaf, returning leaf first.
func (in *Info) ScopeChain(leaf *Scope) []*Scope {
	chain := []*Scope{leaf}
	cur := leaf
	for cur.HasParent {
		parent, ok := in.scopes[cur.ParentID]
		if !ok {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// VariablesFor returns every CSymbol declared directly in scopeID.
func (in *Info) VariablesFor(scopeID int) []*CSymbol {
	var out []*CSymbol
	for _, cs := range in.csyms {
		if cs.ScopeID == scopeID {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FrameSize returns the scope's declared size, or, if absent, the sum of
// the positive-offset auto CSymbols in that scope.
func (in *Info) FrameSize(scopeID int) int {
	sc, ok := in.scopes[scopeID]
	if ok && sc.HasSize {
		return sc.Size
	}
	total := 0
	for _, cs := range in.VariablesFor(scopeID) {
		if cs.StorageClass == Auto && cs.Offset > 0 {
			total += cs.Offset
		}
	}
	return total
}

// IsLibraryFile reports whether fileID's owning module is flagged as a
// library.
func (in *Info) IsLibraryFile(fileID int) bool { return in.libraryFiles[fileID] }

// File, Segment, Scope, and CSymbol direct lookups, used by the debugger
// when it already has an id from a Line/Scope/CSymbol result.
func (in *Info) File(id int) (*File, bool)       { f, ok := in.files[id]; return f, ok }
func (in *Info) Segment(id int) (*Segment, bool) { s, ok := in.segs[id]; return s, ok }
func (in *Info) Scope(id int) (*Scope, bool)     { s, ok := in.scopes[id]; return s, ok }
func (in *Info) CSymbol(id int) (*CSymbol, bool) { c, ok := in.csyms[id]; return c, ok }

// SymbolByName resolves a name used in an evaluate() expression, preferring
// a label over an equate when both share a name (shouldn't normally
// happen, but keeps the preference rule uniform with SymbolAt).
func (in *Info) SymbolByName(name string) (*Symbol, bool) {
	sym, ok := in.nameSymbol[name]
	return sym, ok
}

// FileIDByName resolves a source file name to its .dbg file id, for
// translating a set_breakpoints(file, lines) request into addresses.
func (in *Info) FileIDByName(name string) (int, bool) {
	for _, f := range in.files {
		if f.Name == name {
			return f.ID, true
		}
	}
	return 0, false
}

// AddrsForLine returns the starting address of every span attached to the
// given file/line pair.
func (in *Info) AddrsForLine(fileID, lineNo int) []uint16 {
	var addrs []uint16
	for _, l := range in.lines {
		if l.FileID != fileID || l.Line != lineNo {
			continue
		}
		for _, spanID := range l.SpanIDs {
			if sp, ok := in.spans[spanID]; ok {
				addrs = append(addrs, sp.AbsStart)
			}
		}
	}
	return addrs
}

// SpanRangeAt returns the bounds of the smallest span containing addr, for
// StepIn/Next's "current span at the starting PC" allowed range.
func (in *Info) SpanRangeAt(addr uint16) (start, end uint16, ok bool) {
	spans := in.spansContaining(addr)
	if len(spans) == 0 {
		return 0, 0, false
	}
	best := spans[0]
	for _, sp := range spans[1:] {
		if sp.Size < best.Size {
			best = sp
		}
	}
	return best.AbsStart, best.AbsStart + uint16(best.Size), true
}

// ResolveDebugFile tries progPath+".dbg", then (if progPath has an
// extension) progPath with that extension replaced by ".dbg". exists is
// injected so callers can test this without touching a real filesystem.
func ResolveDebugFile(progPath string, exists func(string) bool) (string, bool) {
	candidate := progPath + ".dbg"
	if exists(candidate) {
		return candidate, true
	}
	ext := filepath.Ext(progPath)
	if ext == "" {
		return "", false
	}
	candidate = strings.TrimSuffix(progPath, ext) + ".dbg"
	if exists(candidate) {
		return candidate, true
	}
	return "", false
}
