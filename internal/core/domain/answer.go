package domain

import "time"

// Citation names a passage that contributed to an answer. Only passages
// that survived prompt trimming are cited.
type Citation struct {
	// Domain is the knowledge domain the passage came from, or
	// "records" for tabular answers.
	Domain string

	// Seq is the cited chunk's position within its domain. Negative for
	// tabular citations, which have no chunk.
	Seq int

	// Score is the retrieval similarity of the cited passage.
	Score float64
}

// Answer is the result of running a query through the pipeline.
type Answer struct {
	// Text is the generated response shown to the user.
	Text string

	// Citations lists the sources the answer drew on, most relevant
	// first. Empty when no relevant knowledge was found or when the
	// answer is degraded.
	Citations []Citation

	// Route records which path produced the answer.
	Route Route

	// Degraded is true when the generation collaborator failed after
	// retries and Text is an apology rather than an answer. Degraded
	// exchanges are not committed to conversation memory.
	Degraded bool
}

// Feedback is a user's rating of an answer, appended to the tabular
// store's feedback sheet.
type Feedback struct {
	ID        string
	ThreadID  string
	User      string
	Rating    string
	Question  string
	Answer    string
	CreatedAt time.Time
}
