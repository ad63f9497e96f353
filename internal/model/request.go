package model

import "time"

// RequestStatus is the declared status domain of a claim request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestAccepted RequestStatus = "Accepted"
	RequestRejected RequestStatus = "Rejected"
)

// Request is a claim attempt against an item.
type Request struct {
	ID          int64         `json:"id"`
	ItemID      int64         `json:"item"`
	RequesterID int64         `json:"requester"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	Item        *Item         `json:"item_detail,omitempty"`
}
