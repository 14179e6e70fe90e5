package model

// PageQuery requests up to PageSize items starting strictly after AfterKey
// (ordered ascending by TxOutRef lexicographic bytes). A nil AfterKey starts
// from the beginning.
type PageQuery struct {
	PageSize int
	AfterKey *TxOutRef
}

// Page is one page of a paginated query result. NextPageQuery is nil iff no
// further page exists.
type Page struct {
	CurrentPageQuery PageQuery
	NextPageQuery    *PageQuery
	Items            []TxOutRef
}
