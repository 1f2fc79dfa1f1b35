// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

// DataKind identifies a cacheable external data flavor, matching the three
// kinds SetDataCacheOptions enumerates.
type DataKind uint8

const (
	// StructuredData is mutable, owner-signed application data.
	StructuredData DataKind = iota + 1
	// PlainData is small opaque unstructured data.
	PlainData
	// ImmutableData is content-addressed, never mutated once put.
	ImmutableData
)

// ExternalOp distinguishes a Get from a Put/Response within ExternalRequest
// and ExternalResponse content, which the data cache needs to decide
// whether to query or populate.
type ExternalOp uint8

const (
	// OpGet is a read request or the response to one.
	OpGet ExternalOp = iota + 1
	// OpPut is a write request or the response to one.
	OpPut
)

// ExternalPayload is the opaque application-level content of an
// ExternalRequest/ExternalResponse. The application layer proper is out of
// scope (spec §1); the core only needs enough shape to drive the data
// cache and to hand the payload back to the user untouched.
type ExternalPayload struct {
	Kind    DataKind
	Op      ExternalOp
	Key     Name // content-addressed key, used by the data cache
	Payload []byte

	// RequestToken echoes the request's own SignedToken (Event.ResponseToken)
	// so the original requester can confirm this reply answers something it
	// actually signed (spec §4.2 ExternalResponse dispatch). A response
	// served from the data cache always carries it, whatever the request's
	// authority. When it is nil, the receiver instead requires the
	// response's destination to be a group authority in its close-group
	// range.
	RequestToken *SignedToken
}

// internalKind discriminates the closed Content/InternalRequest and
// Content/InternalResponse variant sets.
type internalKind uint8

const (
	internalRequestNetworkName internalKind = iota + 1
	internalRelocatedNetworkName
	internalConnect
	internalRefresh
)

// RequestNetworkName is a client's request to be assigned a network name.
type RequestNetworkName struct {
	PublicID PublicID
}

// RelocatedNetworkNameRequest carries the freshly relocated public id
// forward to the group that will cache it, plus the client's original
// signed token so that group's eventual response can prove provenance, and
// the client's original from-authority so the response can be routed back.
type RelocatedNetworkNameRequest struct {
	RelocatedID       PublicID
	OriginalToken     SignedToken
	OriginalAuthority Authority
}

// RelocatedNetworkNameResponse is returned to the client: its relocated
// identity, the close group it should connect to, and its own original
// token echoed back for self-verification.
type RelocatedNetworkNameResponse struct {
	RelocatedID   PublicID
	CloseGroup    []PublicID
	OriginalToken SignedToken
}

// ConnectRequest carries a peer's accept endpoints and public id.
type ConnectRequest struct {
	Endpoints []string
	PublicID  PublicID
}

// ConnectResponse carries the responder's endpoints plus the original
// signed token, so the requester can prove this is really a reply to its
// own request.
type ConnectResponse struct {
	Endpoints     []string
	PublicID      PublicID
	OriginalToken SignedToken
}

// Refresh is an opaque, group-scoped reconciliation payload.
type Refresh struct {
	TypeTag string
	Payload []byte
	Cause   Name
}

// Content is the closed tagged union over a routing message's payload:
// ExternalRequest | ExternalResponse | InternalRequest | InternalResponse,
// with InternalRequest/InternalResponse further tagged over
// RequestNetworkName/RelocatedNetworkName/Connect/Refresh. Exactly one of
// the typed fields is populated, selected by Kind (and InternalKind).
type Content struct {
	kind contentKind
	ik   internalKind

	external *ExternalPayload

	requestNetworkName     *RequestNetworkName
	relocatedNameRequest   *RelocatedNetworkNameRequest
	relocatedNameResponse  *RelocatedNetworkNameResponse
	connectRequest         *ConnectRequest
	connectResponse        *ConnectResponse
	refresh                *Refresh
}

type contentKind uint8

const (
	contentExternalRequest contentKind = iota + 1
	contentExternalResponse
	contentInternalRequest
	contentInternalResponse
)

// NewExternalRequest builds external-request content.
func NewExternalRequest(p ExternalPayload) Content {
	return Content{kind: contentExternalRequest, external: &p}
}

// NewExternalResponse builds external-response content.
func NewExternalResponse(p ExternalPayload) Content {
	return Content{kind: contentExternalResponse, external: &p}
}

// NewRequestNetworkName builds InternalRequest/RequestNetworkName content.
func NewRequestNetworkName(r RequestNetworkName) Content {
	return Content{kind: contentInternalRequest, ik: internalRequestNetworkName, requestNetworkName: &r}
}

// NewRelocatedNetworkNameRequest builds InternalRequest/RelocatedNetworkName content.
func NewRelocatedNetworkNameRequest(r RelocatedNetworkNameRequest) Content {
	return Content{kind: contentInternalRequest, ik: internalRelocatedNetworkName, relocatedNameRequest: &r}
}

// NewRelocatedNetworkNameResponse builds InternalResponse/RelocatedNetworkName content.
func NewRelocatedNetworkNameResponse(r RelocatedNetworkNameResponse) Content {
	return Content{kind: contentInternalResponse, ik: internalRelocatedNetworkName, relocatedNameResponse: &r}
}

// NewConnectRequest builds InternalRequest/Connect content.
func NewConnectRequest(r ConnectRequest) Content {
	return Content{kind: contentInternalRequest, ik: internalConnect, connectRequest: &r}
}

// NewConnectResponse builds InternalResponse/Connect content.
func NewConnectResponse(r ConnectResponse) Content {
	return Content{kind: contentInternalResponse, ik: internalConnect, connectResponse: &r}
}

// NewRefresh builds InternalRequest/Refresh content.
func NewRefresh(r Refresh) Content {
	return Content{kind: contentInternalRequest, ik: internalRefresh, refresh: &r}
}

// IsExternalRequest reports whether c is an ExternalRequest.
func (c Content) IsExternalRequest() bool { return c.kind == contentExternalRequest }

// IsExternalResponse reports whether c is an ExternalResponse.
func (c Content) IsExternalResponse() bool { return c.kind == contentExternalResponse }

// IsInternalRequest reports whether c is an InternalRequest.
func (c Content) IsInternalRequest() bool { return c.kind == contentInternalRequest }

// IsInternalResponse reports whether c is an InternalResponse.
func (c Content) IsInternalResponse() bool { return c.kind == contentInternalResponse }

// External returns the external payload, if this content carries one.
func (c Content) External() (ExternalPayload, bool) {
	if c.external == nil {
		return ExternalPayload{}, false
	}
	return *c.external, true
}

// AsRequestNetworkName returns the RequestNetworkName payload, if present.
func (c Content) AsRequestNetworkName() (RequestNetworkName, bool) {
	if c.requestNetworkName == nil {
		return RequestNetworkName{}, false
	}
	return *c.requestNetworkName, true
}

// AsRelocatedNetworkNameRequest returns the request-side relocation payload, if present.
func (c Content) AsRelocatedNetworkNameRequest() (RelocatedNetworkNameRequest, bool) {
	if c.relocatedNameRequest == nil {
		return RelocatedNetworkNameRequest{}, false
	}
	return *c.relocatedNameRequest, true
}

// AsRelocatedNetworkNameResponse returns the response-side relocation payload, if present.
func (c Content) AsRelocatedNetworkNameResponse() (RelocatedNetworkNameResponse, bool) {
	if c.relocatedNameResponse == nil {
		return RelocatedNetworkNameResponse{}, false
	}
	return *c.relocatedNameResponse, true
}

// AsConnectRequest returns the Connect request payload, if present.
func (c Content) AsConnectRequest() (ConnectRequest, bool) {
	if c.connectRequest == nil {
		return ConnectRequest{}, false
	}
	return *c.connectRequest, true
}

// AsConnectResponse returns the Connect response payload, if present.
func (c Content) AsConnectResponse() (ConnectResponse, bool) {
	if c.connectResponse == nil {
		return ConnectResponse{}, false
	}
	return *c.connectResponse, true
}

// AsRefresh returns the Refresh payload, if present.
func (c Content) AsRefresh() (Refresh, bool) {
	if c.refresh == nil {
		return Refresh{}, false
	}
	return *c.refresh, true
}

// IsRelocatedNetworkName reports whether this internal content's sub-tag is
// RelocatedNetworkName, request or response.
func (c Content) IsRelocatedNetworkName() bool {
	return (c.kind == contentInternalRequest || c.kind == contentInternalResponse) && c.ik == internalRelocatedNetworkName
}

// RoutingMessage is the addressed, content-bearing message that gets
// signed. Equality of (RoutingMessage, claimant) is the dedup fingerprint.
type RoutingMessage struct {
	FromAuthority Authority
	ToAuthority   Authority
	Content       Content
}

// SignedMessage pairs a RoutingMessage with the address that claims it and
// a signature over the exact serialized bytes of the routing message.
type SignedMessage struct {
	Message   RoutingMessage
	Claimant  Address
	Signature []byte
	// serialized caches the exact bytes the signature covers, so a
	// SignedToken built from this message never needs to re-serialize.
	serialized []byte
}

// Serialized returns the exact byte sequence the signature was computed
// over.
func (s SignedMessage) Serialized() []byte { return s.serialized }

// WithSerialized attaches the serialized bytes a Codec produced for this
// message, so SignedToken() can replay them verbatim.
func (s SignedMessage) WithSerialized(b []byte) SignedMessage {
	s.serialized = b
	return s
}

// Token returns the SignedToken replay of this message: the same
// serialized bytes plus the same claimant signature, detached from the
// rest of the envelope.
func (s SignedMessage) Token() SignedToken {
	return SignedToken{
		Claimant:   s.Claimant,
		Serialized: s.serialized,
		Signature:  s.Signature,
	}
}

// Fingerprint identifies (routing_message, claimant) for dedup purposes.
// Two SignedMessages with byte-identical serialized routing messages and
// the same claimant produce the same fingerprint.
func (s SignedMessage) Fingerprint() string {
	return string(s.serialized) + "|" + claimantKey(s.Claimant)
}

// HandledKey identifies the routing message alone, independent of
// claimant, for the handled-messages filter.
func (s SignedMessage) HandledKey() string {
	return string(s.serialized)
}

func claimantKey(a Address) string {
	if a.IsNode() {
		n, _ := a.AsNode()
		return "n:" + string(n[:])
	}
	k, _ := a.AsClient()
	return "c:" + string(k)
}

// SignedToken is an opaque, detached replay of a previously signed
// message: the exact serialized bytes plus the claimant's signature over
// them. Verification re-hashes these bytes; nothing is ever re-serialized.
type SignedToken struct {
	Claimant   Address
	Serialized []byte
	Signature  []byte
}
