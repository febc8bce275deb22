// Package parser reads flashcard decks written in markdown.
//
// A deck is a sequence of cards:
//
//	M: 3
//	S: 3.1
//
//	Q: What is the charge of an electron?
//	A: Negative
//	C: Electron theory
//	D: easy
//	T: atoms, charge
//
// Q: starts a card and A:, C: blocks may span several lines. D: and T: are
// single-line metadata. M: and S: set the module and sub-module for every
// card that follows them. A line containing only "---" ends the current card.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/part66/internal/domain"
)

const (
	questionPrefix   = "Q:"
	answerPrefix     = "A:"
	contextPrefix    = "C:"
	difficultyPrefix = "D:"
	tagsPrefix       = "T:"
	modulePrefix     = "M:"
	subModulePrefix  = "S:"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Cards without a
// question are dropped.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var currentCard domain.Card
	var currentBlock []string
	var moduleID, subModuleID string
	currentState := seeking

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(currentBlock, "\n"))
		switch currentState {
		case readingQuestion:
			currentCard.Question = content
		case readingAnswer:
			currentCard.Answer = content
		case readingContext:
			currentCard.Context = content
		}
		currentBlock = nil
	}

	finishCard := func() {
		flushBlock()
		if currentCard.Question != "" {
			if currentCard.Difficulty == "" {
				currentCard.Difficulty = domain.DifficultyMedium
			}
			currentCard.Tags = domain.NormalizeTags(currentCard.Tags)
			cards = append(cards, currentCard)
		}
		currentCard = domain.Card{ModuleID: moduleID, SubModuleID: subModuleID}
		currentState = seeking
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if line == "---" {
			finishCard()
			continue
		}

		prefix, rest, ok := cutPrefix(line)
		if !ok {
			if currentState != seeking {
				currentBlock = append(currentBlock, line)
			}
			continue
		}

		switch prefix {
		case modulePrefix, subModulePrefix:
			finishCard()
			if prefix == modulePrefix {
				moduleID, subModuleID = domain.ModuleID(rest), ""
			} else {
				subModuleID = domain.SubModuleID(rest)
			}
			currentCard = domain.Card{ModuleID: moduleID, SubModuleID: subModuleID}
		case questionPrefix:
			if currentCard.Question != "" || currentState != seeking {
				finishCard() // A new question always starts a new card
			}
			currentState = readingQuestion
			currentBlock = append(currentBlock, rest)
		case answerPrefix:
			flushBlock()
			currentState = readingAnswer
			currentBlock = append(currentBlock, rest)
		case contextPrefix:
			flushBlock()
			currentState = readingContext
			currentBlock = append(currentBlock, rest)
		case difficultyPrefix:
			flushBlock()
			d, err := domain.ParseDifficulty(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			currentCard.Difficulty = d
			currentState = seeking
		case tagsPrefix:
			flushBlock()
			currentCard.Tags = append(currentCard.Tags, strings.Split(rest, ",")...)
			currentState = seeking
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

var prefixes = []string{
	questionPrefix, answerPrefix, contextPrefix, difficultyPrefix, tagsPrefix, modulePrefix, subModulePrefix,
}

// cutPrefix splits a line starting with a known prefix. One space after the
// prefix is dropped.
func cutPrefix(line string) (prefix, rest string, ok bool) {
	for _, p := range prefixes {
		if r, found := strings.CutPrefix(line, p); found {
			return p, strings.TrimPrefix(r, " "), true
		}
	}
	return "", "", false
}
