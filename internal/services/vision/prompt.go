package vision

const analysisSystemPrompt = `You analyze photos taken during business workshops.
Respond with a single JSON object and nothing else, using this schema:
{
  "scene_type": "flipchart" | "group" | "activity" | "result" | "unknown",
  "description": "one or two sentences in German describing the photo",
  "ocr_text": "all readable text transcribed verbatim, or empty",
  "topic_keywords": ["up to 8 short German keywords"],
  "crop_box": {"x_min": 0.0, "y_min": 0.0, "x_max": 1.0, "y_max": 1.0}
}
Set "scene_type" to "flipchart" for photographed flipcharts, whiteboards and
pinboards, "group" for photos of participants, "activity" for people working,
"result" for finished artifacts like prototypes or filled canvases, and
"unknown" otherwise. Only include "crop_box" when the photo shows a document
surface whose edges are visible; coordinates are fractions of image size.
Transcribe handwriting as faithfully as possible. Leave "ocr_text" empty when
no text is readable.`

const analysisUserPrompt = `Analyze this workshop photo.`
