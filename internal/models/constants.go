package models

// metadata keys carried on schema.Document and chromem documents
const (
	MetaSource  = "source"
	MetaPage    = "page"
	MetaChunkID = "chunk_id"
	MetaTitle   = "title"
	MetaAuthor  = "author"
)

const (
	ContextSeparator = "\n"
	SourceSeparator  = ", "
	DefaultQuestion  = "Hi"
)

var (
	HistoryPreamble = "Hi, you're an AI assistant. Answer questions to the best of your ability based on available context."

	SystemInstruction = "You are a helpful AI assistant. Answer questions using the provided context if available."

	AnswerPromptTemplate = `Answer the following question using the provided context. If you cannot answer with the context, ask for more context.
Question: %s
Context: %s`
)
