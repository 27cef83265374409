package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Registrar API",
        "description": "Academic records service: catalog, scheduling, enrollment and grading",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Departments", "description": "Department registry"},
        {"name": "Students", "description": "Student records, transcripts and GPA"},
        {"name": "Instructors", "description": "Instructor roster and workload"},
        {"name": "Courses", "description": "Course catalog and prerequisite graph"},
        {"name": "Sections", "description": "Scheduled course offerings"},
        {"name": "Enrollments", "description": "Enrollment, cancellation and grading"},
        {"name": "Teaching", "description": "Instructor section assignments"},
        {"name": "Advisors", "description": "Student advisor assignments"}
    ],
    "paths": {
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Create department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDepartmentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/departments/{name}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Get department",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Departments"],
                "summary": "Update department",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DepartmentUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Departments"],
                "summary": "Delete empty department",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "Search students",
                "parameters": [
                    {"name": "dept", "in": "query", "type": "string"},
                    {"name": "major", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "email", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/students/{id}/transcript": {
            "get": {
                "tags": ["Students"],
                "summary": "Student transcript",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/transcript/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Download transcript as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/gpa": {
            "get": {
                "tags": ["Students"],
                "summary": "Compute GPA",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No graded courses", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/eligibility/{courseId}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Check prerequisite eligibility",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Instructors"],
                "summary": "List instructors",
                "parameters": [{"name": "dept", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Instructors"],
                "summary": "Hire instructor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInstructorRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/instructors/{id}": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Get instructor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Instructors"],
                "summary": "Update instructor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InstructorUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Instructors"],
                "summary": "Delete instructor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/instructors/{id}/workload": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Sections taught in a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "parameters": [{"name": "dept", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Add course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Courses"],
                "summary": "Update course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/courses/{id}/prerequisites": {
            "get": {
                "tags": ["Courses"],
                "summary": "List direct prerequisites",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}/prerequisites/{prereqId}": {
            "put": {
                "tags": ["Courses"],
                "summary": "Add prerequisite edge",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "prereqId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Remove prerequisite edge",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "prereqId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Schedule section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{courseId}/{sectionId}/{semester}/{year}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Sections"],
                "summary": "Update section",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SectionUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete section",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate or full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Prerequisite not met", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/cancel": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Cancel enrollment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/enrollments/grade": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Assign grade",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/enrollments/info": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enrollment detail",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teaching": {
            "post": {
                "tags": ["Teaching"],
                "summary": "Assign instructor to section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeachingRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "delete": {
                "tags": ["Teaching"],
                "summary": "Remove instructor from section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeachingRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/advisors": {
            "put": {
                "tags": ["Advisors"],
                "summary": "Assign or replace advisor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignAdvisorRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/advisors/{studentId}": {
            "get": {
                "tags": ["Advisors"],
                "summary": "Get student's advisor",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "CreateDepartmentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "budget": {"type": "number"},
                "building": {"type": "string"},
                "dean_name": {"type": "string"}
            },
            "required": ["name", "phone", "building", "dean_name"]
        },
        "DepartmentUpdate": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "budget": {"type": "number"},
                "building": {"type": "string"},
                "dean_name": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "major": {"type": "string"},
                "total_credits": {"type": "integer"},
                "email": {"type": "string"},
                "enrollment_date": {"type": "string"},
                "status": {"type": "string"}
            },
            "required": ["full_name", "dept_name", "email"]
        },
        "StudentUpdate": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "major": {"type": "string"},
                "total_credits": {"type": "integer"},
                "email": {"type": "string"},
                "enrollment_date": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "CreateInstructorRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "academic_rank": {"type": "string"},
                "salary": {"type": "number"},
                "email": {"type": "string"},
                "hire_date": {"type": "string"},
                "office_number": {"type": "string"}
            },
            "required": ["full_name", "dept_name", "academic_rank", "email"]
        },
        "InstructorUpdate": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "academic_rank": {"type": "string"},
                "salary": {"type": "number"},
                "email": {"type": "string"},
                "hire_date": {"type": "string"},
                "office_number": {"type": "string"}
            }
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "credits": {"type": "integer"},
                "dept_name": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["id", "title", "credits", "dept_name"]
        },
        "CourseUpdate": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "credits": {"type": "integer"},
                "dept_name": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateSectionRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "section_id": {"type": "string"},
                "semester": {"type": "string"},
                "academic_year": {"type": "integer"},
                "time_slot": {"type": "string"},
                "room": {"type": "string"},
                "capacity": {"type": "integer"}
            },
            "required": ["course_id", "section_id", "semester", "academic_year", "time_slot", "room", "capacity"]
        },
        "SectionUpdate": {
            "type": "object",
            "properties": {
                "time_slot": {"type": "string"},
                "room": {"type": "string"},
                "capacity": {"type": "integer"}
            }
        },
        "EnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "course_id": {"type": "string"},
                "section_id": {"type": "string"},
                "semester": {"type": "string"},
                "academic_year": {"type": "integer"}
            },
            "required": ["student_id", "course_id", "section_id", "semester", "academic_year"]
        },
        "GradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "course_id": {"type": "string"},
                "section_id": {"type": "string"},
                "semester": {"type": "string"},
                "academic_year": {"type": "integer"},
                "grade": {"type": "string"}
            },
            "required": ["student_id", "course_id", "section_id", "semester", "academic_year", "grade"]
        },
        "TeachingRequest": {
            "type": "object",
            "properties": {
                "instructor_id": {"type": "integer"},
                "course_id": {"type": "string"},
                "section_id": {"type": "string"},
                "semester": {"type": "string"},
                "academic_year": {"type": "integer"}
            },
            "required": ["instructor_id", "course_id", "section_id", "semester", "academic_year"]
        },
        "AssignAdvisorRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "instructor_id": {"type": "integer"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["student_id"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
