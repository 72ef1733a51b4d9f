package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biosimlabs/textode/internal/lexicon"
	"github.com/biosimlabs/textode/pkg/model"
)

// handlerFunc is the shared contract of all reaction handlers. Each
// receives the originating line number and the sentence fragments around
// the matched trigger phrase, validates its own sentence shape, registers
// species, emits exactly one rate-law statement and folds the rule's sign
// convention into the accumulator.
type handlerFunc func(b *build, line int, left, right string) error

// ruleSpec ties a rule to its expected parameter base names and handler.
type ruleSpec struct {
	params []string
	handle handlerFunc
}

// rules is the explicit dispatch table. Every rule the lexicon knows must
// have an entry here.
var rules = map[string]ruleSpec{
	lexicon.RuleDimerize:           {params: []string{"kf", "kr"}, handle: (*build).dimerize},
	lexicon.RuleBind:               {params: []string{"kf", "kr"}, handle: (*build).bind},
	lexicon.RuleIsDissociated:      {params: []string{"kf", "kr"}, handle: (*build).isDissociated},
	lexicon.RuleIsPhosphorylated:   {params: []string{"kf", "kr"}, handle: (*build).isPhosphorylated},
	lexicon.RuleIsDephosphorylated: {params: []string{"V", "K"}, handle: (*build).isDephosphorylated},
	lexicon.RulePhosphorylate:      {params: []string{"V", "K"}, handle: (*build).phosphorylate},
	lexicon.RuleDephosphorylate:    {params: []string{"V", "K"}, handle: (*build).dephosphorylate},
	lexicon.RuleTranscribe:         {params: []string{"V", "K", "n", "KF", "nF"}, handle: (*build).transcribe},
	lexicon.RuleIsTranslated:       {params: []string{"kf"}, handle: (*build).isTranslated},
	lexicon.RuleSynthesize:         {params: []string{"kf"}, handle: (*build).synthesize},
	lexicon.RuleIsSynthesized:      {params: []string{"kf"}, handle: (*build).isSynthesized},
	lexicon.RuleDegrade:            {params: []string{"kf"}, handle: (*build).degrade},
	lexicon.RuleIsDegraded:         {params: []string{"kf"}, handle: (*build).isDegraded},
	lexicon.RuleIsTranslocated:     {params: []string{"kf", "kr"}, handle: (*build).isTranslocated},
}

// repressedBy introduces the optional negative-regulation clause of a
// transcription sentence.
const repressedBy = ", repressed by"

// dimerize: M <phrase> --> D
//
//	v = kf*M*M - kr*D    dM/dt: -2v    dD/dt: +v
func (b *build) dimerize(line int, left, right string) error {
	monomer := strings.TrimSpace(left)
	dimer, ok := afterArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the dimer"}
	}
	if monomer == dimer {
		return &InvalidNamingError{Line: line, Name: dimer}
	}
	b.addSpecies(monomer, dimer)
	b.addReaction(line, fmt.Sprintf("%s*%s*%s - %s*%s",
		param("kf", line), monomer, monomer, param("kr", line), dimer))
	b.addTerm(monomer, model.Term{Sign: -1, Coefficient: "2", Line: line})
	b.addTerm(dimer, model.Term{Sign: +1, Line: line})
	return nil
}

// bind: A <phrase> B --> C. Identical reactants fall back to dimerize
// semantics; clause extraction has already run, so only the rate law and
// stoichiometry are delegated.
func (b *build) bind(line int, left, right string) error {
	c1 := strings.TrimSpace(left)
	c2, cx, ok := aroundArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the protein complex"}
	}
	if c1 == cx || c2 == cx {
		return &InvalidNamingError{Line: line, Name: cx}
	}
	if c1 == c2 {
		return b.dimerize(line, left, right)
	}
	b.addSpecies(c1, c2, cx)
	b.addReaction(line, fmt.Sprintf("%s*%s*%s - %s*%s",
		param("kf", line), c1, c2, param("kr", line), cx))
	b.addTerm(c1, model.Term{Sign: -1, Line: line})
	b.addTerm(c2, model.Term{Sign: -1, Line: line})
	b.addTerm(cx, model.Term{Sign: +1, Line: line})
	return nil
}

// isDissociated: C <phrase> A and B
//
//	v = kf*C - kr*A*B    dC/dt: -v    dA/dt, dB/dt: +v (+2v when A == B)
func (b *build) isDissociated(line int, left, right string) error {
	complexName := strings.TrimSpace(left)
	if !strings.Contains(right, " and ") {
		return &MalformedSentenceError{Line: line, Msg: "use 'and' to separate the two components, e.g. AB is dissociated into A and B"}
	}
	parts := strings.SplitN(right, " and ", 2)
	c1 := strings.TrimSpace(parts[0])
	c2 := strings.TrimSpace(parts[1])
	b.addSpecies(complexName, c1, c2)
	b.addReaction(line, fmt.Sprintf("%s*%s - %s*%s*%s",
		param("kf", line), complexName, param("kr", line), c1, c2))
	b.addTerm(complexName, model.Term{Sign: -1, Line: line})
	if c1 == c2 {
		b.addTerm(c1, model.Term{Sign: +1, Coefficient: "2", Line: line})
		return nil
	}
	b.addTerm(c1, model.Term{Sign: +1, Line: line})
	b.addTerm(c2, model.Term{Sign: +1, Line: line})
	return nil
}

// isPhosphorylated: U <phrase> --> P
//
//	v = kf*U - kr*P    dU/dt: -v    dP/dt: +v
func (b *build) isPhosphorylated(line int, left, right string) error {
	u := strings.TrimSpace(left)
	p, ok := afterArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the phosphorylated protein"}
	}
	b.addSpecies(u, p)
	b.addPair(u, p)
	b.addReaction(line, fmt.Sprintf("%s*%s - %s*%s",
		param("kf", line), u, param("kr", line), p))
	b.addTerm(u, model.Term{Sign: -1, Line: line})
	b.addTerm(p, model.Term{Sign: +1, Line: line})
	return nil
}

// isDephosphorylated: P <phrase> --> U
//
//	v = V*P/(K+P)    dP/dt: -v    dU/dt: +v
func (b *build) isDephosphorylated(line int, left, right string) error {
	p := strings.TrimSpace(left)
	u, ok := afterArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the dephosphorylated protein"}
	}
	b.addSpecies(p, u)
	b.addPair(u, p)
	b.addReaction(line, fmt.Sprintf("%s*%s/(%s+%s)",
		param("V", line), p, param("K", line), p))
	b.addTerm(u, model.Term{Sign: +1, Line: line})
	b.addTerm(p, model.Term{Sign: -1, Line: line})
	return nil
}

// phosphorylate: E <phrase> U --> P
//
//	v = V*E*U/(K+U)    dU/dt: -v    dP/dt: +v
func (b *build) phosphorylate(line int, left, right string) error {
	kinase := strings.TrimSpace(left)
	u, p, ok := aroundArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the phosphorylated (or activated) protein"}
	}
	if u == p {
		return &InvalidNamingError{Line: line, Name: p}
	}
	b.addSpecies(kinase, u, p)
	b.addPair(u, p)
	b.addReaction(line, fmt.Sprintf("%s*%s*%s/(%s+%s)",
		param("V", line), kinase, u, param("K", line), u))
	b.addTerm(u, model.Term{Sign: -1, Line: line})
	b.addTerm(p, model.Term{Sign: +1, Line: line})
	return nil
}

// dephosphorylate: E <phrase> P --> U
//
//	v = V*E*P/(K+P)    dP/dt: -v    dU/dt: +v
func (b *build) dephosphorylate(line int, left, right string) error {
	phosphatase := strings.TrimSpace(left)
	p, u, ok := aroundArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the dephosphorylated (or deactivated) protein"}
	}
	if p == u {
		return &InvalidNamingError{Line: line, Name: u}
	}
	b.addSpecies(phosphatase, p, u)
	b.addPair(u, p)
	b.addReaction(line, fmt.Sprintf("%s*%s*%s/(%s+%s)",
		param("V", line), phosphatase, p, param("K", line), p))
	b.addTerm(p, model.Term{Sign: -1, Line: line})
	b.addTerm(u, model.Term{Sign: +1, Line: line})
	return nil
}

// transcribe: TF[ and TF2] <phrase> mRNA[, repressed by R]
//
// Hill law with an optional AND-gate product of two transcription factors
// and an optional repressor term added to the denominator. Without a
// repressor clause the KF and nF constants are dropped again.
func (b *build) transcribe(line int, left, right string) error {
	var repressor string
	var mRNA string
	if strings.Contains(right, repressedBy) {
		parts := strings.SplitN(right, repressedBy, 2)
		mRNA = strings.TrimSpace(parts[0])
		repressor = strings.TrimSpace(parts[1])
	} else {
		b.removeParam(param("KF", line))
		b.removeParam(param("nF", line))
		mRNA = strings.TrimSpace(right)
		if strings.Contains(mRNA, " ") {
			return &MalformedSentenceError{
				Line: line,
				Msg:  "add ', repressed by XXX' to describe negative regulation from XXX",
			}
		}
	}

	v, k, n := param("V", line), param("K", line), param("n", line)
	var gate string
	if strings.Contains(left, " and ") {
		parts := strings.SplitN(left, " and ", 2)
		tf1 := strings.TrimSpace(parts[0])
		tf2 := strings.TrimSpace(parts[1])
		b.addSpecies(tf1, tf2, mRNA)
		gate = "(" + tf1 + "*" + tf2 + ")"
	} else {
		tf := strings.TrimSpace(left)
		b.addSpecies(tf, mRNA)
		gate = tf
	}
	if repressor != "" {
		b.addSpecies(repressor)
	}

	expr := fmt.Sprintf("%s*%s^%s/(%s^%s + %s^%s", v, gate, n, k, n, gate, n)
	if repressor == "" {
		expr += ")"
	} else {
		expr += fmt.Sprintf(" + (%s/%s)^%s)", repressor, param("KF", line), param("nF", line))
	}
	b.addReaction(line, expr)
	b.addTerm(mRNA, model.Term{Sign: +1, Line: line})
	return nil
}

// isTranslated: mRNA <phrase> protein
//
//	v = kf*mRNA    dprotein/dt: +v
func (b *build) isTranslated(line int, left, right string) error {
	mRNA := strings.TrimSpace(left)
	protein := strings.TrimSpace(right)
	b.addSpecies(mRNA, protein)
	b.addReaction(line, fmt.Sprintf("%s*%s", param("kf", line), mRNA))
	b.addTerm(protein, model.Term{Sign: +1, Line: line})
	return nil
}

// synthesize: catalyst <phrase> product
//
//	v = kf*catalyst    dproduct/dt: +v
func (b *build) synthesize(line int, left, right string) error {
	catalyst := strings.TrimSpace(left)
	product := strings.TrimSpace(right)
	b.addSpecies(catalyst, product)
	b.addReaction(line, fmt.Sprintf("%s*%s", param("kf", line), catalyst))
	b.addTerm(product, model.Term{Sign: +1, Line: line})
	return nil
}

// isSynthesized: species <phrase>
//
//	v = kf    dspecies/dt: +v
func (b *build) isSynthesized(line int, left, _ string) error {
	species := strings.TrimSpace(left)
	b.addSpecies(species)
	b.addReaction(line, param("kf", line))
	b.addTerm(species, model.Term{Sign: +1, Line: line})
	return nil
}

// degrade: protease <phrase> protein
//
//	v = kf*protease    dprotein/dt: -v
func (b *build) degrade(line int, left, right string) error {
	protease := strings.TrimSpace(left)
	protein := strings.TrimSpace(right)
	b.addSpecies(protease, protein)
	b.addReaction(line, fmt.Sprintf("%s*%s", param("kf", line), protease))
	b.addTerm(protein, model.Term{Sign: -1, Line: line})
	return nil
}

// isDegraded: species <phrase>
//
//	v = kf*species    dspecies/dt: -v
func (b *build) isDegraded(line int, left, _ string) error {
	species := strings.TrimSpace(left)
	b.addSpecies(species)
	b.addReaction(line, fmt.Sprintf("%s*%s", param("kf", line), species))
	b.addTerm(species, model.Term{Sign: -1, Line: line})
	return nil
}

// isTranslocated: pre <phrase> --> post [(preVol, postVol)]
//
// When the compartment volumes differ, the reverse rate is scaled by
// postVol/preVol and the product's flux contribution by preVol/postVol.
func (b *build) isTranslocated(line int, left, right string) error {
	pre := strings.TrimSpace(left)
	post, ok := afterArrow(right)
	if !ok {
		return &MalformedSentenceError{Line: line, Msg: "use '-->' to specify the name of the species after translocation"}
	}
	// The volume pair may trail the product name.
	if i := strings.Index(post, "("); i >= 0 {
		post = strings.TrimSpace(post[:i])
	}
	if pre == post {
		return &InvalidNamingError{Line: line, Name: post}
	}

	preVol, postVol, err := parseVolumes(line, right)
	if err != nil {
		return err
	}

	b.addSpecies(pre, post)
	kf, kr := param("kf", line), param("kr", line)
	if preVol == postVol {
		b.addReaction(line, fmt.Sprintf("%s*%s - %s*%s", kf, pre, kr, post))
	} else {
		b.addReaction(line, fmt.Sprintf("%s*%s - %s*(%s/%s)*%s", kf, pre, kr, postVol, preVol, post))
	}
	b.addTerm(pre, model.Term{Sign: -1, Line: line})
	postTerm := model.Term{Sign: +1, Line: line}
	if preVol != postVol {
		postTerm.Scale = "(" + preVol + "/" + postVol + ")"
	}
	b.addTerm(post, postTerm)
	return nil
}

// parseVolumes extracts the optional "(preVol, postVol)" pair from a
// translocation sentence. Both default to 1 when absent. Volumes compare
// numerically but are carried as their literal text.
func parseVolumes(line int, fragment string) (preVol, postVol string, err error) {
	open := strings.LastIndex(fragment, "(")
	if open < 0 || !strings.Contains(fragment[open:], ")") {
		return "1", "1", nil
	}
	inner := fragment[open+1:]
	inner = inner[:strings.Index(inner, ")")]
	fields := strings.Split(inner, ",")
	if len(fields) != 2 {
		return "", "", &MalformedSentenceError{Line: line, Msg: "volumes must be given as '(pre_volume, post_volume)'"}
	}
	preVol = strings.TrimSpace(fields[0])
	postVol = strings.TrimSpace(fields[1])
	if !isFloat(preVol) {
		return "", "", &NonNumericValueError{Line: line, What: "compartment volume", Value: preVol}
	}
	if !isFloat(postVol) {
		return "", "", &NonNumericValueError{Line: line, What: "compartment volume", Value: postVol}
	}
	pv, _ := strconv.ParseFloat(preVol, 64)
	qv, _ := strconv.ParseFloat(postVol, 64)
	if pv == qv {
		return "1", "1", nil
	}
	return preVol, postVol, nil
}
