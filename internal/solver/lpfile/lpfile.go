// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package lpfile writes a problem in CPLEX LP text format.
//
// Parametric symbols are written as bounded columns named after the symbol
// and listed in a leading comment block, so a multiparametric solver can
// pick them up as parameters.
package lpfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/specialistvlad/energiago/internal/program"
)

// termsPerLine keeps lines well under the 255 character limit of most readers.
const termsPerLine = 6

var replacer = strings.NewReplacer(
	":", "_",
	"[", "(",
	"]", ")",
	"-", "~",
	"+", "_",
	"*", "_",
	"^", "_",
	"<", "_",
	">", "_",
	"=", "_",
	" ", "_",
)

// Name maps a variable, symbol or constraint name to a valid LP identifier.
func Name(s string) string {
	return replacer.Replace(s)
}

// Write writes p to w.
func Write(w io.Writer, p *program.Problem) error {
	bw := bufio.NewWriter(w)
	lw := &writer{w: bw}

	lw.printf("\\ Problem: %s\n", p.Name)
	lw.printf("\\ Formulation: %s\n", p.ID)
	if p.Parametric() {
		lw.printf("\\ Parametric symbols:\n")
		for _, s := range p.Symbols {
			lw.printf("\\   %s in [%s, %s]\n", Name(s.Name), num(s.Range.Low), num(s.Range.High))
		}
	}

	lw.printf("Minimize\n")
	obj := p.Objective.Expr.Simplify()
	lw.printf(" obj:")
	lw.expr(obj)
	if obj.Constant != 0 {
		lw.printf(" %s %s", sign(obj.Constant), num(abs(obj.Constant)))
	}
	lw.printf("\n")

	lw.printf("Subject To\n")
	for _, c := range p.Constraints {
		r := c.Normalized()
		lw.printf(" %s:", Name(c.Name))
		lw.expr(program.Expr{Terms: r.Terms, Symbols: r.Symbols})
		if len(r.Terms) == 0 && len(r.Symbols) == 0 {
			// A constant row still needs a column to be valid.
			lw.printf(" 0 %s", Name(firstColumn(p)))
		}
		lw.printf(" %s %s\n", r.Sense, num(r.RHS))
	}

	if p.Parametric() {
		lw.printf("Bounds\n")
		for _, s := range p.Symbols {
			lw.printf(" %s <= %s <= %s\n", num(s.Range.Low), Name(s.Name), num(s.Range.High))
		}
	}

	var binaries []string
	for _, v := range p.Variables {
		if v.Domain == program.Binary {
			binaries = append(binaries, Name(v.Name))
		}
	}
	if len(binaries) > 0 {
		lw.printf("Binary\n")
		for _, b := range binaries {
			lw.printf(" %s\n", b)
		}
	}
	lw.printf("End\n")

	if lw.err != nil {
		return fmt.Errorf("lpfile: %w", lw.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("lpfile: %w", err)
	}
	return nil
}

type writer struct {
	w   *bufio.Writer
	err error
}

func (lw *writer) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

func (lw *writer) expr(e program.Expr) {
	n := 0
	term := func(coef float64, name string) {
		if n > 0 && n%termsPerLine == 0 {
			lw.printf("\n   ")
		}
		switch {
		case n == 0 && coef >= 0:
			lw.printf(" %s %s", num(coef), name)
		default:
			lw.printf(" %s %s %s", sign(coef), num(abs(coef)), name)
		}
		n++
	}
	for _, t := range e.Terms {
		term(t.Coef, Name(t.Var.Name))
	}
	for _, s := range e.Symbols {
		term(s.Coef, Name(s.Symbol.Name))
	}
}

func firstColumn(p *program.Problem) string {
	if len(p.Variables) > 0 {
		return p.Variables[0].Name
	}
	return "zero"
}

func num(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func sign(f float64) string {
	if f < 0 {
		return "-"
	}
	return "+"
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
