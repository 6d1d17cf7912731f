package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BodyPart identifies the affected area of an injury. Exercise
// contraindications are keyed on body part, so an active shoulder injury
// excludes every exercise contraindicated for the shoulder.
type BodyPart string

const (
	BodyPartShoulder  BodyPart = "shoulder"
	BodyPartKnee      BodyPart = "knee"
	BodyPartLowerBack BodyPart = "lower_back"
	BodyPartAnkle     BodyPart = "ankle"
	BodyPartHip       BodyPart = "hip"
	BodyPartWrist     BodyPart = "wrist"
	BodyPartElbow     BodyPart = "elbow"
	BodyPartHamstring BodyPart = "hamstring"
	BodyPartCalf      BodyPart = "calf"
	BodyPartNeck      BodyPart = "neck"
)

// InjuryType classifies how the injury presents.
type InjuryType string

const (
	InjuryAcute   InjuryType = "acute"
	InjuryChronic InjuryType = "chronic"
)

// InjuryStatus type for injury lifecycle
type InjuryStatus string

const (
	InjuryStatusActive   InjuryStatus = "active"
	InjuryStatusResolved InjuryStatus = "resolved"
)

// InjuryLimitation records an injury the athlete reported. While Active it
// drives exclusion of contraindicated exercises from plan generation and
// triggers the injury adaptation on existing plans.
type InjuryLimitation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfileID    primitive.ObjectID `bson:"profileId" json:"profileId"`
	BodyPart     BodyPart           `bson:"bodyPart" json:"bodyPart"`
	Type         InjuryType         `bson:"type" json:"type"`
	ReportedAt   time.Time          `bson:"reportedAt" json:"reportedAt"`
	Status       InjuryStatus       `bson:"status" json:"status"`
	Restrictions string             `bson:"restrictions,omitempty" json:"restrictions,omitempty"` // Free-text movement restrictions
	ResolvedAt   *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}
