// Package chat answers questions about the knowledge base.
//
// A Router decides whether a question needs retrieval (SEARCH) or is plain
// conversation (GENERAL). SEARCH questions go to an Answerer, which pulls
// the nearest chunks from the vector index and asks the oracle to answer
// from them. GENERAL questions get a direct conversational reply. Service
// ties the three together behind Process.
//
// Oracle failures never surface as errors here. Each call site has a fixed
// fallback and reports the failure through ai.Result.
package chat
